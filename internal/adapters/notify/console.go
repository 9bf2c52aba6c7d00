package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyScores imprime el top de wallets y la distribución de composites.
func (c *Console) NotifyScores(_ context.Context, top []domain.WalletScore, dist domain.ScoreDistribution) error {
	if dist.Count == 0 {
		fmt.Fprintln(c.out, "\n  No wallets with enough data to score.")
		return nil
	}

	fmt.Fprintf(c.out, "\n=== TOP %d WALLETS (of %d scored) ===\n", len(top), dist.Count)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Wallet", "Name", "Score", "Trades", "Mkts", "WinRate", "ROI", "Timing", "Median$")
	for i, s := range top {
		table.Append(
			fmt.Sprintf("%d", i+1),
			shortAddr(s.WalletID),
			domain.Truncate(s.DisplayName, 18),
			fmt.Sprintf("%.1f", s.CompositeScore),
			fmt.Sprintf("%d", s.TradeCount),
			fmt.Sprintf("%d", s.UniqueMarketCount),
			fmt.Sprintf("%.0f", s.Factors[domain.FactorWinRate]),
			fmt.Sprintf("%.0f", s.Factors[domain.FactorROI]),
			fmt.Sprintf("%.0f", s.Factors[domain.FactorTimingEdge]),
			fmt.Sprintf("$%.0f", s.MedianPositionSize),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  Score distribution: mean=%.1f  median=%.1f  std=%.1f\n",
		dist.Mean, dist.Median, dist.StdDev)
	fmt.Fprintf(c.out, "  Wallets >= 60: %d | >= 70: %d | >= 80: %d\n\n",
		dist.Above60, dist.Above70, dist.Above80)
	return nil
}

// NotifyBacktest imprime la tabla por umbral, el mejor umbral y opcionalmente las señales.
func (c *Console) NotifyBacktest(_ context.Context, r domain.BacktestReport, showSignals bool) error {
	fmt.Fprintf(c.out, "\n╔══════════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(c.out, "║  BACKTEST — wallet basket consensus vs market resolution         ║\n")
	fmt.Fprintf(c.out, "╚══════════════════════════════════════════════════════════════════╝\n\n")

	if r.RunID != "" {
		fmt.Fprintf(c.out, "  Run:       %s (%s)\n", r.RunID, r.RunAt.UTC().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(c.out, "  Wallets:   %d scored, %d eligible\n", r.WalletsScored, r.EligibleCount)
	fmt.Fprintf(c.out, "  Timeline:  %d trades\n\n", r.TimelineTrades)

	if len(r.Results) == 0 {
		fmt.Fprintln(c.out, "  No backtest results available.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Threshold", "Signals", "Verified", "Correct", "Accuracy", "AvgCons", "AvgAgree")
	for _, res := range r.Results {
		table.Append(
			fmt.Sprintf("%.0f%%", res.Threshold*100),
			fmt.Sprintf("%d", res.TotalSignals),
			fmt.Sprintf("%d", res.VerifiedSignals),
			fmt.Sprintf("%d", res.CorrectSignals),
			accuracyLabel(res),
			fmt.Sprintf("%.3f", res.MeanConsensus),
			fmt.Sprintf("%.1f", res.MeanAgreeing),
		)
	}
	table.Render()

	if r.Best != nil {
		fmt.Fprintf(c.out, "\n  >>> BEST THRESHOLD: %.0f%% — accuracy %.1f%% over %d verified signals\n",
			r.Best.Threshold*100, r.Best.Accuracy*100, r.Best.VerifiedSignals)
	} else {
		fmt.Fprintln(c.out, "\n  >>> NO THRESHOLD with enough verified signals to rank")
	}

	if showSignals {
		for _, res := range r.Results {
			c.printSignals(res)
		}
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *Console) printSignals(res domain.ThresholdResult) {
	fmt.Fprintf(c.out, "\n--- Signals @ %.0f%% (%d) ---\n", res.Threshold*100, len(res.Signals))
	for _, sig := range res.Signals {
		fmt.Fprintf(c.out, "  %s  %-3s %-40s cons=%.2f  %d/%d  entry=%.3f  %s\n",
			time.Unix(sig.Timestamp, 0).UTC().Format("2006-01-02 15:04"),
			sig.Direction,
			domain.TruncateQuestion(sig.Title, sig.MarketID, 40),
			sig.Consensus,
			sig.Agreeing, sig.Total,
			sig.EntryPrice,
			verdictLabel(sig),
		)
	}
}

// --- helpers ---

func accuracyLabel(res domain.ThresholdResult) string {
	if res.VerifiedSignals == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", res.Accuracy*100)
}

func verdictLabel(sig domain.Signal) string {
	switch {
	case sig.Correct == nil:
		return "?"
	case *sig.Correct:
		return "OK " + string(sig.ActualOutcome)
	default:
		return "x  " + string(sig.ActualOutcome)
	}
}

func shortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
