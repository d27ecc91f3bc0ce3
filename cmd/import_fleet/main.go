package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"car-rental/internal/logger"
	"car-rental/rental"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var (
		cfg      = rental.DefaultConfig()
		carsFile string
		members  string
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:          "import_fleet",
		Short:        "Import cars (and optionally members) from seed CSV files",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(verbose)
			defer log.Sync()

			manager, err := rental.NewRentalManager(cfg, log)
			if err != nil {
				return fmt.Errorf("open tables: %w", err)
			}
			defer manager.Close()

			out := cmd.OutOrStdout()
			if carsFile != "" {
				if err := importCars(out, manager, carsFile, log); err != nil {
					return err
				}
			}
			if members != "" {
				if err := importMembers(out, manager, members, log); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.DataDir, "data-dir", rental.EnvOr("RENTAL_DATA_DIR", cfg.DataDir), "directory holding the tables")
	cmd.Flags().StringVar(&cfg.Backend, "backend", rental.EnvOr("RENTAL_BACKEND", cfg.Backend), "table backend: csv or sqlite")
	cmd.Flags().StringVar(&cfg.DBFile, "db", rental.EnvOr("RENTAL_DB", cfg.DBFile), "SQLite file name inside the data dir")
	cmd.Flags().StringVar(&carsFile, "cars", "", "seed CSV with the Cars header")
	cmd.Flags().StringVar(&members, "members", "", "seed CSV with the Members header")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readSeed returns the rows of a seed file keyed by header name.
func readSeed(path string) ([]rental.Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var recs []rental.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rec := make(rental.Record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = strings.TrimSpace(row[i])
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func importCars(out io.Writer, manager *rental.RentalManager, path string, log *zap.Logger) error {
	recs, err := readSeed(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Importing cars from %s...\n", path)

	successCount, errorCount := 0, 0
	for i, rec := range recs {
		car, err := carFromSeed(rec)
		if err == nil {
			err = manager.AddCar(car)
		}
		if err != nil {
			fmt.Fprintf(out, "row %d: ERROR - %v\n", i+2, err)
			log.Debug("car rejected", zap.Int("row", i+2), zap.Error(err))
			errorCount++
			continue
		}
		fmt.Fprintf(out, "Imported: %s (No. %d)\n", car.Name, car.Number)
		successCount++
	}
	fmt.Fprintf(out, "\nImport complete!\nSuccessfully imported: %d cars\nErrors: %d\n", successCount, errorCount)

	if successCount > 0 {
		cars, err := manager.GetAllCars()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%-6s %-30s %-15s %8s\n", "No.", "Name", "Brand", "Cost")
		fmt.Fprintln(out, strings.Repeat("-", 62))
		for _, c := range cars {
			fmt.Fprintf(out, "%-6d %-30s %-15s %8d\n", c.Number, truncateString(c.Name, 30), truncateString(c.Brand, 15), c.CostPerDay)
		}
	}
	return nil
}

func carFromSeed(rec rental.Record) (rental.Car, error) {
	number, err := rental.ParseInt(rental.ColCarNumber, rec[rental.ColCarNumber])
	if err != nil {
		return rental.Car{}, err
	}
	cost, err := rental.ParseInt(rental.ColCost, rec[rental.ColCost])
	if err != nil {
		return rental.Car{}, err
	}
	return rental.Car{
		Number:     number,
		Name:       rec[rental.ColCarName],
		Brand:      rec[rental.ColBrand],
		Branch:     rec[rental.ColBranch],
		FuelType:   rec[rental.ColFuelType],
		CostPerDay: cost,
		Category:   rec[rental.ColCategory],
	}, nil
}

func importMembers(out io.Writer, manager *rental.RentalManager, path string, log *zap.Logger) error {
	recs, err := readSeed(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Importing members from %s...\n", path)

	successCount, errorCount := 0, 0
	for i, rec := range recs {
		id, err := rental.ParseInt(rental.ColMemberID, rec[rental.ColMemberID])
		if err == nil {
			err = manager.AddMember(id, rec[rental.ColMemberName], rec[rental.ColPhone])
		}
		if err != nil {
			fmt.Fprintf(out, "row %d: ERROR - %v\n", i+2, err)
			log.Debug("member rejected", zap.Int("row", i+2), zap.Error(err))
			errorCount++
			continue
		}
		successCount++
	}
	fmt.Fprintf(out, "Successfully imported: %d members\nErrors: %d\n", successCount, errorCount)
	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
