package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tbastin/bomcost/pkg/application/dto"
	appservices "github.com/tbastin/bomcost/pkg/application/services"
	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
	"github.com/tbastin/bomcost/pkg/domain/services"
	"github.com/tbastin/bomcost/pkg/infrastructure/config"
	"github.com/tbastin/bomcost/pkg/infrastructure/logger"
	csvrepo "github.com/tbastin/bomcost/pkg/infrastructure/repositories/csv"
	"github.com/tbastin/bomcost/pkg/infrastructure/repositories/postgres"
)

type store interface {
	repositories.GraphRepository
	repositories.LedgerRepository
}

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "Path to config file (ignored with -fixtures)")
		fixturesDir = flag.String("fixtures", "", "Load graph from a CSV fixture directory instead of postgres")
		variantID   = flag.String("variant", "", "Variant or sub-variant id to operate on")
		consumption = flag.Bool("consumption", false, "Resolve flattened leaf consumption")
		cost        = flag.Bool("cost", false, "Resolve rounded cost")
		stock       = flag.Bool("stock", false, "Check stock sufficiency")
		subtractKey = flag.String("subtract", "", "Apply subtraction for the given fulfillment key")
		format      = flag.String("format", "text", "Output format: text, json")
	)
	flag.Parse()

	if err := run(context.Background(), *configPath, *fixturesDir, *variantID,
		*consumption, *cost, *stock, *subtractKey, *format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, fixturesDir, variantID string,
	consumption, cost, stock bool, subtractKey, format string) error {
	if variantID == "" {
		return fmt.Errorf("-variant is required")
	}

	env := "dev"
	var repo store
	if fixturesDir != "" {
		loaded, err := csvrepo.NewLoader().LoadScenario(fixturesDir)
		if err != nil {
			return fmt.Errorf("failed to load fixtures: %w", err)
		}
		repo = loaded
	} else {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		env = cfg.App.Env

		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		repo = postgres.NewRepository(pool)
	}

	log := logger.New(env)
	converter := services.NewConverter()
	consumptionSvc := appservices.NewConsumptionService(repo, converter, log)
	costSvc := appservices.NewCostService(repo, converter, log)
	stockSvc := appservices.NewStockService(repo, converter, consumptionSvc, log)
	ledgerSvc := appservices.NewLedgerService(repo, repo, converter, consumptionSvc, log)

	id := entities.VariantID(variantID)
	switch {
	case consumption:
		result, err := consumptionSvc.Resolve(ctx, id)
		if err != nil {
			return err
		}
		return printConsumption(result, format)

	case cost:
		result, err := costSvc.Cost(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(result.String())
		return nil

	case stock:
		report, err := stockSvc.CheckStock(ctx, id)
		if err != nil {
			return err
		}
		return printStockReport(report, format)

	case subtractKey != "":
		record, err := ledgerSvc.Subtract(ctx, id, subtractKey)
		if err != nil {
			return err
		}
		return printRecord(record, format)

	default:
		return fmt.Errorf("one of -consumption, -cost, -stock, or -subtract is required")
	}
}

func printConsumption(result dto.ConsumptionMap, format string) error {
	if format == "json" {
		return printJSON(result)
	}
	ids := make([]entities.ItemID, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		req := result[id]
		fmt.Printf("%-24s %12s %s\n", id, req.Amount.String(), req.Unit)
	}
	return nil
}

func printStockReport(report *dto.StockReport, format string) error {
	if format == "json" {
		return printJSON(report)
	}
	if report.InStock {
		fmt.Println("in stock")
		return nil
	}
	fmt.Println("insufficient stock:")
	for _, s := range report.Shortages {
		fmt.Printf("%-24s need %s %s, have %s\n", s.ItemID, s.Required.String(), s.Unit, s.Available.String())
	}
	return nil
}

func printRecord(record *entities.SubtractionRecord, format string) error {
	if format == "json" {
		return printJSON(record)
	}
	fmt.Printf("record %s at %s\n", record.ID, record.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, e := range record.Entries {
		fmt.Printf("%-24s -%s %s (remaining %s)\n", e.ItemID, e.Subtracted.String(), e.Unit, e.Remaining.String())
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
