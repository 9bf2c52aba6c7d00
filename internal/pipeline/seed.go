package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alejandrodnm/polybasket/internal/domain"
	"github.com/alejandrodnm/polybasket/internal/ports"
)

// SeedWallets descubre los mercados de mayor volumen, recorre sus top holders
// y guarda la cesta de wallets más recurrentes junto con los mercados.
func (p *Pipeline) SeedWallets(ctx context.Context) ([]domain.Wallet, error) {
	markets, err := p.topMarkets(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.storage.SaveMarkets(ctx, markets); err != nil {
		return nil, fmt.Errorf("pipeline.SeedWallets: %w", err)
	}

	agg := newWalletAggregator()
	for i, m := range markets {
		holders, err := p.holders.FetchHolders(ctx, m.ConditionID, p.cfg.HoldersPerMarket)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("holders fetch failed, skipping market",
				"condition_id", m.ConditionID,
				"err", err,
			)
			continue
		}
		agg.add(m.ConditionID, holders)
		slog.Debug("holders scanned",
			"market", fmt.Sprintf("%d/%d", i+1, len(markets)),
			"question", domain.TruncateQuestion(m.Question, m.ConditionID, 50),
			"holders", len(holders),
		)
	}

	wallets := agg.top(p.cfg.MaxWallets)
	if err := p.storage.SaveWallets(ctx, wallets); err != nil {
		return nil, fmt.Errorf("pipeline.SeedWallets: %w", err)
	}

	slog.Info("seed wallets complete",
		"markets", len(markets),
		"resolved", len(domain.Resolutions(markets)),
		"unique_wallets", agg.len(),
		"kept", len(wallets),
	)
	return wallets, nil
}

// topMarkets pide los cerrados (para verificar) y los activos de mayor volumen,
// y deduplica por conditionId manteniendo el primero.
func (p *Pipeline) topMarkets(ctx context.Context) ([]domain.Market, error) {
	queries := []ports.MarketQuery{
		{Closed: true, MinVolume: p.cfg.ClosedMinVolume, Limit: p.cfg.Markets},
		{Closed: false, MinVolume: p.cfg.ActiveMinVolume, Limit: p.cfg.Markets / 2},
	}

	seen := make(map[string]struct{})
	var markets []domain.Market
	for _, q := range queries {
		batch, err := p.markets.FetchTopMarkets(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("market fetch failed", "closed", q.Closed, "err", err)
			continue
		}
		for _, m := range batch {
			if m.ConditionID == "" {
				continue
			}
			if _, dup := seen[m.ConditionID]; dup {
				continue
			}
			seen[m.ConditionID] = struct{}{}
			markets = append(markets, m)
		}
	}

	if len(markets) == 0 {
		return nil, fmt.Errorf("pipeline.SeedWallets: no markets discovered")
	}
	return markets, nil
}

// walletAggregator acumula por dirección los mercados donde aparece y el valor total.
type walletAggregator struct {
	wallets map[string]*domain.Wallet
	markets map[string]map[string]struct{}
}

func newWalletAggregator() *walletAggregator {
	return &walletAggregator{
		wallets: make(map[string]*domain.Wallet),
		markets: make(map[string]map[string]struct{}),
	}
}

func (a *walletAggregator) add(conditionID string, holders []domain.Holder) {
	for _, h := range holders {
		if h.Address == "" {
			continue
		}
		w, ok := a.wallets[h.Address]
		if !ok {
			w = &domain.Wallet{Address: h.Address}
			a.wallets[h.Address] = w
			a.markets[h.Address] = make(map[string]struct{})
		}
		if w.Pseudonym == "" {
			w.Pseudonym = h.Pseudonym
		}
		w.TotalValue += h.Value
		if _, seen := a.markets[h.Address][conditionID]; !seen {
			a.markets[h.Address][conditionID] = struct{}{}
			w.MarketsSeen = append(w.MarketsSeen, conditionID)
		}
	}
}

func (a *walletAggregator) len() int { return len(a.wallets) }

// top ordena por (#mercados desc, valor desc, dirección) y corta en n (0 = todas).
func (a *walletAggregator) top(n int) []domain.Wallet {
	out := make([]domain.Wallet, 0, len(a.wallets))
	for _, w := range a.wallets {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].MarketsSeen) != len(out[j].MarketsSeen) {
			return len(out[i].MarketsSeen) > len(out[j].MarketsSeen)
		}
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Address < out[j].Address
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
