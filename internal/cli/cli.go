package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/J3r3C0/sheratan-core-v2/internal/config"
	internal_http "github.com/J3r3C0/sheratan-core-v2/internal/http"
	"github.com/J3r3C0/sheratan-core-v2/internal/log"
	"github.com/J3r3C0/sheratan-core-v2/internal/runner"
	internal_storage "github.com/J3r3C0/sheratan-core-v2/internal/storage"
	"github.com/J3r3C0/sheratan-core-v2/pkg/relay"
	"github.com/J3r3C0/sheratan-core-v2/pkg/service"
	"github.com/spf13/cobra"
)

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("config", "sheratan.yaml", "path to the configuration file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Sheratan Core HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			svc := buildService(cfg)
			if err := internal_http.StartServer(cfg.Port, svc); err != nil {
				log.GetLogger().Errorf("Server failed: %v", err)
				os.Exit(1)
			}
		},
	}

	pollCmd := &cobra.Command{
		Use:   "poll",
		Short: "Poll pending jobs for worker results until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			interval, err := cmd.Flags().GetDuration("interval")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving interval flag: %v", err)
				os.Exit(1)
			}
			cfg := loadConfig(cmd)
			svc := buildService(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runner.New(svc, log.GetLogger(), interval).Run(ctx); err != nil {
				log.GetLogger().Errorf("Runner failed: %v", err)
				os.Exit(1)
			}
		},
	}
	pollCmd.Flags().Duration("interval", 2*time.Second, "polling interval")

	createMissionCmd := &cobra.Command{
		Use:   "create-mission [title]",
		Short: "Create a new mission",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			description, _ := cmd.Flags().GetString("description")
			cfg := loadConfig(cmd)
			svc := buildService(cfg)
			mission, err := svc.CreateMission(args[0], description, nil, nil)
			if err != nil {
				log.GetLogger().Errorf("Failed to create mission: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to create mission: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Created mission '%s' with ID %s\n", mission.Title, mission.ID)
		},
	}
	createMissionCmd.Flags().String("description", "", "mission description")

	listMissionsCmd := &cobra.Command{
		Use:   "list-missions",
		Short: "List all missions",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			svc := buildService(cfg)
			missions, err := svc.ListMissions()
			if err != nil {
				log.GetLogger().Errorf("Failed to list missions: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to list missions: %v\n", err)
				os.Exit(1)
			}
			if len(missions) == 0 {
				fmt.Fprintf(os.Stdout, "No missions found.\n")
				return
			}
			fmt.Fprintf(os.Stdout, "Missions:\n")
			for _, m := range missions {
				fmt.Fprintf(os.Stdout, "- ID: %s, Title: %s, Created: %s\n",
					m.ID, m.Title, m.CreatedAt.Format(time.RFC3339))
			}
		},
	}

	dispatchCmd := &cobra.Command{
		Use:   "dispatch [job-id]",
		Short: "Write a job's envelope into the outbound relay",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			svc := buildService(cfg)
			path, err := svc.DispatchJob(args[0])
			if err != nil {
				log.GetLogger().Errorf("Failed to dispatch job: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to dispatch job: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Dispatched job %s to %s\n", args[0], path)
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync [job-id]",
		Short: "Probe the inbound relay for a job's result",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				fmt.Fprintf(os.Stderr, "Wrong number of arguments, expected 1 got %v\n", len(args))
				os.Exit(1)
			}
			cfg := loadConfig(cmd)
			svc := buildService(cfg)
			job, followups, err := svc.SyncJob(args[0])
			if err != nil {
				log.GetLogger().Errorf("Failed to sync job: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to sync job: %v\n", err)
				os.Exit(1)
			}
			if job == nil {
				fmt.Fprintf(os.Stdout, "No result for job %s yet\n", args[0])
				return
			}
			fmt.Fprintf(os.Stdout, "Job %s is %s (%d follow-up job(s) created)\n", job.ID, job.Status, len(followups))
		},
	}

	rootCmd.AddCommand(serveCmd, pollCmd, createMissionCmd, listMissionsCmd, dispatchCmd, syncCmd)
}

func loadConfig(cmd *cobra.Command) config.Config {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving config flag: %v", err)
		os.Exit(1)
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.GetLogger().Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.GetLogger().Errorf("Failed to prepare directories: %v", err)
		os.Exit(1)
	}
	return cfg
}

func buildService(cfg config.Config) *service.MissionService {
	store, err := internal_storage.InitStore(cfg.DataDir)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	bridge := relay.NewBridge(relay.Settings{
		RelayOutDir:   cfg.RelayOutDir,
		RelayInDir:    cfg.RelayInDir,
		SessionPrefix: cfg.SessionPrefix,
	}, store, log.GetLogger())
	return service.NewMissionService(store, bridge, log.GetLogger())
}
