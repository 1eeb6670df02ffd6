package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/outfit"
)

var outfitFlags struct {
	base string
	pool int
	top  int
}

var outfitCmd = &cobra.Command{
	Use:   "outfit",
	Short: "Assemble an outfit around a base listing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		o, err := assembleOutfit(cmd.Context(), a, outfitFlags.base, outfitFlags.pool)
		if err != nil {
			return err
		}
		printOutfit(cmd.OutOrStdout(), o, outfitFlags.top)
		return nil
	},
}

func init() {
	f := outfitCmd.Flags()
	f.StringVar(&outfitFlags.base, "base", "", "base listing id")
	f.IntVar(&outfitFlags.pool, "pool", 200, "candidate pool size")
	f.IntVar(&outfitFlags.top, "top", 3, "candidates shown per slot")
	_ = outfitCmd.MarkFlagRequired("base")
}

func assembleOutfit(ctx context.Context, a *app, baseID string, poolSize int) (*outfit.Outfit, error) {
	base, err := a.lookup.Get(ctx, baseID)
	if err != nil {
		return nil, err
	}
	pool, err := a.repo.Query(ctx, core.Filters{})
	if err != nil {
		return nil, err
	}
	if poolSize > 0 && len(pool) > poolSize {
		pool = pool[:poolSize]
	}
	return a.assembler.Assemble(ctx, base, pool)
}

func printOutfit(w io.Writer, o *outfit.Outfit, top int) {
	fmt.Fprintf(w, "base %s (%s) slot=%s locked=%s\n", o.Base.ID, o.Base.Category, o.BaseSlot, o.Locked)
	for _, slot := range outfit.CarouselSlots {
		items := o.Slot(slot)
		src := o.ScoreSource[slot]
		if slot == o.Locked {
			src = "locked"
		}
		if o.FromFallback[slot] {
			src += ", fallback pool"
		}
		fmt.Fprintf(w, "\n%s (%s)\n", slot, src)
		for i, it := range items {
			if i >= top {
				break
			}
			fmt.Fprintf(w, "  %-12s %-12s %6.1f  %s\n", it.ID, it.Category, it.Score, it.Title)
		}
	}
}
