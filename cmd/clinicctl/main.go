package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/suchimauz/clinic-admin/internal/adapters/in/cli"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/clinicapi"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/credentials"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/guard"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/logger"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
	"github.com/suchimauz/clinic-admin/internal/core/services"
)

type app struct {
	cfg       *config.Config
	logger    out.LoggerPort
	clinicAPI *clinicapi.ClinicAPIAdapter
	service   *services.DoctorDeletionService
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Clinic admin operator tool",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(doctorsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Логи в stderr, чтобы не мешать выводу команды
	log := logger.NewWriterLogger(os.Stderr, cfg.App.LogLevel)

	var credentialPort out.CredentialPort
	if cfg.HasLoginCredentials() {
		credentialPort = credentials.NewLoginProvider(cfg, log.WithModule("LoginProvider"))
	} else {
		credentialPort = credentials.NewStaticProvider(cfg.ClinicAPI.Token)
	}

	clinicAPI := clinicapi.NewClinicAPIAdapter(cfg, credentialPort, log.WithModule("ClinicAPIAdapter"))

	return &app{
		cfg:       cfg,
		logger:    log,
		clinicAPI: clinicAPI,
		service:   services.NewDoctorDeletionService(clinicAPI, guard.NewMemoryGuard(), nil, nil, log, cfg),
	}, nil
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record; doctors are deleted with their appointments and prescriptions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := domain.ParseResourceType(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.Atoi(args[1])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[1])
			}
			assumeYes, _ := cmd.Flags().GetBool("yes")

			a, err := newApp()
			if err != nil {
				return err
			}

			runner := cli.NewDeletePromptRunner(a.service, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger.WithModule("CLI"))
			_, _, err = runner.Run(cmd.Context(), resource, id, assumeYes)
			return err
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation question")
	return cmd
}

func doctorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctors",
		Short: "List doctors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			doctors, err := a.clinicAPI.ListDoctors(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSPECIALISATION")
			for _, doctor := range doctors {
				fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\n", doctor.ID, doctor.FirstName, doctor.LastName, doctor.Email, doctor.Specialisation)
			}
			return w.Flush()
		},
	}
}
