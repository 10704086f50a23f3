package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"planetsim/config"
)

var (
	flagSettings string
	flagLevel    int
	flagSteps    int
	flagServe    bool
	flagPort     int
)

var rootCmd = &cobra.Command{
	Use:   "planetsim",
	Short: "Planetary crust evolution simulator",
	Long: `planetsim steps a planetary crust simulation over a spherical mesh:
isostatic displacement, conservative erosion transport, asthenosphere flow
derivation and plate segmentation. With --serve it broadcasts field snapshots
to websocket clients after every step.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagSettings, "settings", "settings.json", "settings file")
	rootCmd.Flags().IntVar(&flagLevel, "level", 0, "icosphere subdivision level (0 = from settings)")
	rootCmd.Flags().IntVar(&flagSteps, "steps", 100, "number of steps to run (ignored with --serve)")
	rootCmd.Flags().BoolVar(&flagServe, "serve", false, "run forever and broadcast snapshots over websockets")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "websocket port (0 = from settings)")
}

func run(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(flagSettings)
	if err != nil {
		return err
	}
	if flagLevel > 0 {
		settings.Simulation.IcosphereLevel = flagLevel
	}
	if flagPort > 0 {
		settings.Server.Port = flagPort
	}

	world, err := NewWorld(settings.Simulation)
	if err != nil {
		return err
	}
	log.Printf("world created: level %d, %d cells", settings.Simulation.IcosphereLevel, world.grid.CellCount())

	if flagServe {
		return serve(world, settings)
	}

	dt := settings.Simulation.TimestepYears
	for step := 0; step < flagSteps; step++ {
		if err := world.Step(dt); err != nil {
			return err
		}
		if (step+1)%10 == 0 || step == flagSteps-1 {
			min, max := world.displacement.MinMax()
			fmt.Printf("\rstep %d/%d | %.1f My | displacement [%.0f, %.0f] m | plates %d",
				step+1, flagSteps, world.timeYears/1e6, min, max, world.plates.MaxLabel())
		}
	}
	fmt.Println()
	return nil
}

// serve steps the world on the configured tick and broadcasts each applied
// snapshot. Runs until the process is killed.
func serve(world *World, settings config.Settings) error {
	server := NewServer()
	go func() {
		if err := server.Listen(settings.Server.Port); err != nil {
			log.Fatal(err)
		}
	}()

	ticker := time.NewTicker(time.Duration(settings.Server.UpdateIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		if err := world.Step(settings.Simulation.TimestepYears); err != nil {
			return err
		}
		server.Broadcast(world.Snapshot())
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
