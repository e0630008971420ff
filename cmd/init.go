package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/signalcorps/beacon/internal/config"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive setup: write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	path := resolveConfigPath()
	if _, err := os.Stat(path); err == nil {
		var overwrite bool
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
			Value(&overwrite)
		if err := confirm.Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Keeping existing config.")
			return nil
		}
	}

	cfg := config.Default()
	port := strconv.Itoa(cfg.Server.Port)
	driver := cfg.Database.Driver
	codesFile := ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen host").
				Value(&cfg.Server.Host),
			huh.NewInput().
				Title("Listen port").
				Value(&port).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 || n > 65535 {
						return fmt.Errorf("enter a port between 1 and 65535")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Storage backend").
				Options(
					huh.NewOption("SQLite (single file, standalone)", "sqlite"),
					huh.NewOption("Postgres (shared, DSN from BEACON_POSTGRES_DSN)", "postgres"),
				).
				Value(&driver),
			huh.NewInput().
				Title("Custom signal code file (blank for builtin codes only)").
				Value(&codesFile),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Server.Port, _ = strconv.Atoi(port)
	cfg.Database.Driver = driver
	cfg.Signals.CodesFile = codesFile

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Wrote %s. Start the server with: beacon serve\n", path)
	if driver == "postgres" {
		fmt.Println("Remember to export BEACON_POSTGRES_DSN before starting.")
	}
	return nil
}
