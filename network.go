package amlengine

import (
	"fmt"
	"time"
)

// EvidenceLookup resolves an account's most recently persisted evidence, as
// needed by the flagged_links signal to cross-reference counterparties'
// risk levels. EvidenceService.Evaluate passes a wrapper around
// Store.GetEvidence that reports a lookup error or a missing record as false.
type EvidenceLookup func(accountID string) (*AccountEvidence, bool)

type edge struct {
	txID      string
	from, to  string
	amount    float64
	timestamp time.Time
}

// Analyze runs all three fund-flow network detectors for accountID against
// the full transaction set.
func Analyze(accountID string, transactions []Transaction, lookup EvidenceLookup, cfg Config) NetworkAnalysis {
	edges := make([]edge, 0, len(transactions))
	for _, t := range transactions {
		edges = append(edges, edge{txID: t.ID, from: t.Sender, to: t.Receiver, amount: t.Amount, timestamp: t.Timestamp})
	}

	var signals []NetworkSignal
	if s := detectCircularFlow(accountID, edges, cfg.MaxPathDepth); s != nil {
		signals = append(signals, *s)
	}
	if s := detectHubAccount(accountID, edges, cfg); s != nil {
		signals = append(signals, *s)
	}
	if s := detectFlaggedLinks(accountID, edges, lookup); s != nil {
		signals = append(signals, *s)
	}

	return NetworkAnalysis{
		Signals:      signals,
		IsProbableML: len(signals) >= 2,
	}
}

// detectCircularFlow runs a depth-bounded DFS from accountID looking for a
// directed path that returns to accountID with length >= 3. The traversal
// uses a single reusable path slice and a single reusable edge-visited set,
// pushed and popped across branches, rather than copying state per branch
// (see spec design notes on graph traversal memory). An edge may only be
// traversed once per path, keyed by transaction id — this allows revisiting
// an account while still bounding the search.
func detectCircularFlow(accountID string, edges []edge, maxDepth int) *NetworkSignal {
	adj := make(map[string][]edge)
	for _, e := range edges {
		adj[e.from] = append(adj[e.from], e)
	}

	var best []edge
	path := make([]edge, 0, maxDepth)
	visited := make(map[string]bool, len(edges))

	var dfs func(node string, depth int)
	dfs = func(node string, depth int) {
		if depth >= maxDepth {
			return
		}
		for _, e := range adj[node] {
			if visited[e.txID] {
				continue
			}
			visited[e.txID] = true
			path = append(path, e)

			if e.to == accountID && len(path) >= 3 {
				if len(path) > len(best) {
					best = append(best[:0], path...)
				}
			} else {
				dfs(e.to, depth+1)
			}

			path = path[:len(path)-1]
			visited[e.txID] = false
		}
	}
	dfs(accountID, 0)

	if best == nil {
		return nil
	}

	nodePath := make([]string, 0, len(best)+1)
	nodePath = append(nodePath, accountID)
	txIDs := make([]string, len(best))
	for i, e := range best {
		nodePath = append(nodePath, e.to)
		txIDs[i] = e.txID
	}

	return &NetworkSignal{
		Type:           "circular_flow",
		Severity:       SeverityCritical,
		Description:    fmt.Sprintf("funds return to the account after %d hops", len(best)),
		Path:           nodePath,
		TransactionIDs: txIDs,
	}
}

// detectHubAccount flags accounts with many distinct counterparties and
// rapid pass-through between inbound and outbound legs.
func detectHubAccount(accountID string, edges []edge, cfg Config) *NetworkSignal {
	var inflows, outflows []edge
	var senderOrder, receiverOrder []string
	senders := make(map[string]bool)
	receivers := make(map[string]bool)
	for _, e := range edges {
		if e.to == accountID {
			inflows = append(inflows, e)
			if !senders[e.from] {
				senders[e.from] = true
				senderOrder = append(senderOrder, e.from)
			}
		}
		if e.from == accountID {
			outflows = append(outflows, e)
			if !receivers[e.to] {
				receivers[e.to] = true
				receiverOrder = append(receiverOrder, e.to)
			}
		}
	}

	if len(senders) < cfg.HubMinCounterparties || len(receivers) < cfg.HubMinCounterparties {
		return nil
	}

	redistributions := 0
	var txIDs []string
	for _, in := range inflows {
		for _, out := range outflows {
			delta := out.timestamp.Sub(in.timestamp)
			if delta > 0 && delta < cfg.RapidRedistributionWindow {
				redistributions++
				txIDs = append(txIDs, in.txID, out.txID)
				break
			}
		}
	}

	if redistributions < cfg.HubMinRedistributions {
		return nil
	}

	counterparties := make([]string, 0, len(senderOrder)+len(receiverOrder))
	counterparties = append(counterparties, senderOrder...)
	counterparties = append(counterparties, receiverOrder...)

	return &NetworkSignal{
		Type:           "hub_account",
		Severity:       SeverityCritical,
		Description:    fmt.Sprintf("%d rapid redistributions across %d senders and %d receivers", redistributions, len(senders), len(receivers)),
		Counterparties: counterparties,
		TransactionIDs: txIDs,
		Details: map[string]interface{}{
			"rapid_redistributions": redistributions,
		},
	}
}

// detectFlaggedLinks cross-references accountID's direct counterparties
// against their persisted risk level, flagging any edge touching an account
// already classified HighRisk or ProbableML.
func detectFlaggedLinks(accountID string, edges []edge, lookup EvidenceLookup) *NetworkSignal {
	if lookup == nil {
		return nil
	}

	var flaggedEdges []edge
	var counterpartyOrder []string
	counterpartySet := make(map[string]bool)
	riskCache := make(map[string]bool)

	isFlagged := func(id string) bool {
		if v, ok := riskCache[id]; ok {
			return v
		}
		ev, ok := lookup(id)
		flagged := ok && ev != nil && (ev.RiskLevel == RiskHighRisk || ev.RiskLevel == RiskProbableML)
		riskCache[id] = flagged
		return flagged
	}

	for _, e := range edges {
		var counterparty string
		switch accountID {
		case e.from:
			counterparty = e.to
		case e.to:
			counterparty = e.from
		default:
			continue
		}
		if isFlagged(counterparty) {
			flaggedEdges = append(flaggedEdges, e)
			if !counterpartySet[counterparty] {
				counterpartySet[counterparty] = true
				counterpartyOrder = append(counterpartyOrder, counterparty)
			}
		}
	}

	if len(flaggedEdges) == 0 {
		return nil
	}

	counterparties := make([]string, len(counterpartyOrder))
	copy(counterparties, counterpartyOrder)
	txIDs := make([]string, len(flaggedEdges))
	for i, e := range flaggedEdges {
		txIDs[i] = e.txID
	}

	return &NetworkSignal{
		Type:           "flagged_links",
		Severity:       SeverityHigh,
		Description:    fmt.Sprintf("%d transactions link this account to %d already-flagged counterparties", len(flaggedEdges), len(counterpartySet)),
		Counterparties: counterparties,
		TransactionIDs: txIDs,
	}
}
