package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ahmed-com/amlengine"
)

func main() {
	dbPath := "amldemo.db"
	os.Remove(dbPath)

	store, err := amlengine.NewBoltStore(dbPath, time.Now)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	cfg := amlengine.DefaultConfig()
	pipeline := amlengine.New(store, cfg)

	fmt.Println("🛡️  AML Detection Engine Demo")
	fmt.Println("=============================")

	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	fmt.Println("\n1. ✅ Smurfing: 7 senders deposit $5,000 each into account R over 30h...")
	senders := []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7"}
	for i, s := range senders {
		tx := amlengine.Transaction{
			ID:        fmt.Sprintf("TX-SMURF-%d", i),
			Sender:    s,
			Receiver:  "R",
			Amount:    5000,
			Timestamp: base.Add(time.Duration(i) * 5 * time.Hour),
		}
		if _, err := pipeline.Process(tx); err != nil {
			log.Fatalf("Failed to process smurfing transaction %d: %v", i, err)
		}
	}
	printEvidence(store, "R")

	fmt.Println("\n2. ✅ Layering: account X cycles funds through three rapid in/out pairs...")
	layeringTxs := []amlengine.Transaction{
		{ID: "TX-LAY-1", Sender: "A", Receiver: "X", Amount: 10000, Timestamp: base.Add(24 * time.Hour)},
		{ID: "TX-LAY-2", Sender: "X", Receiver: "B", Amount: 9800, Timestamp: base.Add(24*time.Hour + 30*time.Minute)},
		{ID: "TX-LAY-3", Sender: "C", Receiver: "X", Amount: 12000, Timestamp: base.Add(26 * time.Hour)},
		{ID: "TX-LAY-4", Sender: "X", Receiver: "D", Amount: 11900, Timestamp: base.Add(27 * time.Hour)},
		{ID: "TX-LAY-5", Sender: "E", Receiver: "X", Amount: 8000, Timestamp: base.Add(29 * time.Hour)},
		{ID: "TX-LAY-6", Sender: "X", Receiver: "F", Amount: 8000, Timestamp: base.Add(29*time.Hour + 30*time.Minute)},
	}
	for _, tx := range layeringTxs {
		if _, err := pipeline.Process(tx); err != nil {
			log.Fatalf("Failed to process layering transaction %s: %v", tx.ID, err)
		}
	}
	printEvidence(store, "X")

	fmt.Println("\n3. ✅ Structuring: account Y sends four outflows just under the reporting threshold...")
	structuringTxs := []amlengine.Transaction{
		{ID: "TX-STR-1", Sender: "Y", Receiver: "Z1", Amount: 9200, Timestamp: base.Add(48 * time.Hour)},
		{ID: "TX-STR-2", Sender: "Y", Receiver: "Z2", Amount: 9400, Timestamp: base.Add(72 * time.Hour)},
		{ID: "TX-STR-3", Sender: "Y", Receiver: "Z3", Amount: 9500, Timestamp: base.Add(96 * time.Hour)},
		{ID: "TX-STR-4", Sender: "Y", Receiver: "Z4", Amount: 9300, Timestamp: base.Add(96*time.Hour + 6*time.Hour)},
	}
	for _, tx := range structuringTxs {
		if _, err := pipeline.Process(tx); err != nil {
			log.Fatalf("Failed to process structuring transaction %s: %v", tx.ID, err)
		}
	}
	printEvidence(store, "Y")

	fmt.Println("\n4. ✅ Circular flow: A -> B -> C -> A within 2 hours...")
	circularTxs := []amlengine.Transaction{
		{ID: "TX-CIRC-1", Sender: "CA", Receiver: "CB", Amount: 1000, Timestamp: base.Add(120 * time.Hour)},
		{ID: "TX-CIRC-2", Sender: "CB", Receiver: "CC", Amount: 1000, Timestamp: base.Add(120*time.Hour + 40*time.Minute)},
		{ID: "TX-CIRC-3", Sender: "CC", Receiver: "CA", Amount: 1000, Timestamp: base.Add(120*time.Hour + 80*time.Minute)},
	}
	for _, tx := range circularTxs {
		if _, err := pipeline.Process(tx); err != nil {
			log.Fatalf("Failed to process circular-flow transaction %s: %v", tx.ID, err)
		}
	}
	printEvidence(store, "CA")

	fmt.Println("\n5. ✅ Dedup: two triggers for the same account within the dedup window...")
	dedupBase := base.Add(200 * time.Hour)
	// D -> DD2 and DD2 -> DD1 set up a cycle that DD1 -> D closes: a
	// circular_flow signal puts D in the Suspicious band on both triggers below.
	for _, tx := range []amlengine.Transaction{
		{ID: "TX-DEDUP-0A", Sender: "D", Receiver: "DD2", Amount: 50000, Timestamp: dedupBase.Add(-20 * time.Minute)},
		{ID: "TX-DEDUP-0B", Sender: "DD2", Receiver: "DD1", Amount: 50000, Timestamp: dedupBase.Add(-10 * time.Minute)},
	} {
		if _, err := pipeline.Process(tx); err != nil {
			log.Fatalf("Failed to process dedup setup transaction %s: %v", tx.ID, err)
		}
	}
	if _, err := pipeline.Process(amlengine.Transaction{
		ID: "TX-DEDUP-1", Sender: "DD1", Receiver: "D", Amount: 50000, Timestamp: dedupBase,
	}); err != nil {
		log.Fatalf("Failed to process first dedup transaction: %v", err)
	}
	if _, err := pipeline.Process(amlengine.Transaction{
		ID: "TX-DEDUP-2", Sender: "DD2", Receiver: "D", Amount: 52000, Timestamp: dedupBase.Add(10 * time.Minute),
	}); err != nil {
		log.Fatalf("Failed to process second dedup transaction: %v", err)
	}
	alerts, err := store.ListAlerts()
	if err != nil {
		log.Fatalf("Failed to list alerts: %v", err)
	}
	dedupAlerts := 0
	for _, a := range alerts {
		if a.AccountID == "D" {
			dedupAlerts++
		}
	}
	fmt.Printf("   Alerts generated for account D: %d (expected 1)\n", dedupAlerts)

	fmt.Println("\n6. ✅ Full batch analysis...")
	result, err := pipeline.FullAnalysis()
	if err != nil {
		log.Fatalf("Failed to run full analysis: %v", err)
	}
	fmt.Printf("   Accounts evaluated: %d\n", result.TotalAccounts)
	fmt.Printf("   Risk band counts: %v\n", result.RiskBandCounts)
	fmt.Printf("   Alerts created: %d\n", result.AlertCount)

	allAlerts, err := store.ListAlerts()
	if err != nil {
		log.Fatalf("Failed to list alerts: %v", err)
	}
	fmt.Printf("\n   Total alerts on file: %d\n", len(allAlerts))
	for i, a := range allAlerts {
		fmt.Printf("     Alert #%d: %s severity=%s score=%d — %s\n", i+1, a.AccountID, a.Severity, a.Score, a.Summary)
	}

	fmt.Println("\n🎉 AML demo completed.")
}

func printEvidence(store *amlengine.BoltStore, accountID string) {
	ev, err := store.GetEvidence(accountID)
	if err != nil {
		log.Fatalf("Failed to read evidence for %s: %v", accountID, err)
	}
	if ev == nil {
		fmt.Printf("   %s: no evidence on file\n", accountID)
		return
	}
	fmt.Printf("   %s: score=%d risk=%s patterns=%d network_signals=%d probable_ml=%v\n",
		accountID, ev.Score, ev.RiskLevel, ev.ConfirmedPatterns, ev.NetworkSignals, ev.IsProbableML)
}
