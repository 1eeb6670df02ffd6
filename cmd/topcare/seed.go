package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import listings (and optional hot ranking) from a YAML file",
	Long: `Import listings into the catalog database.

File format:
  listings:
    - id: l1
      category: Top
      title: Linen shirt
      price: 25
      sellerId: s1
      isBoosted: true
      boostWeight: 2
  hot:
    l1: 120`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sf, err := readSeedFile(seedFile)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := importSeed(cmd.Context(), a, sf)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d listings, %d hot entries\n", n, len(sf.Hot))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "items.yaml", "seed file")
}

type seedListing struct {
	ID          string    `yaml:"id"`
	Category    string    `yaml:"category"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Price       float64   `yaml:"price"`
	Images      []string  `yaml:"images"`
	Tags        []string  `yaml:"tags"`
	Color       string    `yaml:"color"`
	Material    string    `yaml:"material"`
	Style       string    `yaml:"style"`
	Gender      string    `yaml:"gender"`
	Size        string    `yaml:"size"`
	Condition   string    `yaml:"condition"`
	Brand       string    `yaml:"brand"`
	SellerID    string    `yaml:"sellerId"`
	IsBoosted   bool      `yaml:"isBoosted"`
	BoostWeight float64   `yaml:"boostWeight"`
	Likes       int       `yaml:"likes"`
	Views       int       `yaml:"views"`
	CreatedAt   time.Time `yaml:"createdAt"`
}

type seedData struct {
	Listings []seedListing      `yaml:"listings"`
	Hot      map[string]float64 `yaml:"hot"`
}

func readSeedFile(path string) (*seedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var sf seedData
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &sf, nil
}

func (l seedListing) item() *core.Item {
	return &core.Item{
		ID: l.ID, Category: l.Category, Title: l.Title, Description: l.Description,
		Price: l.Price, Images: l.Images, Tags: l.Tags, Color: l.Color, Material: l.Material,
		Style: l.Style, Gender: l.Gender, Size: l.Size, Condition: l.Condition, Brand: l.Brand,
		SellerID: l.SellerID, IsBoosted: l.IsBoosted, BoostWeight: l.BoostWeight,
		Likes: l.Likes, Views: l.Views, CreatedAt: l.CreatedAt,
	}
}

func importSeed(ctx context.Context, a *app, sf *seedData) (int, error) {
	items := make([]*core.Item, 0, len(sf.Listings))
	for _, l := range sf.Listings {
		items = append(items, l.item())
	}
	n, err := a.repo.Upsert(ctx, items)
	if err != nil {
		return 0, err
	}
	for id, score := range sf.Hot {
		if err := a.kv.ZAdd(ctx, rank.DefaultHotKey, score, id); err != nil {
			return n, fmt.Errorf("hot ranking %s: %w", id, err)
		}
	}
	return n, nil
}
