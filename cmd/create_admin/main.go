package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumenai/internal/config"
	"lumenai/internal/database"
	"lumenai/internal/domain"
	"lumenai/internal/services"
	"lumenai/internal/util"
)

var (
	email     string
	password  string
	firstName string
	lastName  string
	role      string
)

var rootCmd = &cobra.Command{
	Use:   "create_admin",
	Short: "Create an admin account",
	Long: `Create an admin account in the configured database.

The password may be passed with --password or through ADMIN_PASSWORD.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if password == "" {
			return fmt.Errorf("--password or ADMIN_PASSWORD is required")
		}
		return run(cmd.Context(), services.AdminInput{
			Email:     email,
			Password:  password,
			FirstName: firstName,
			LastName:  lastName,
			Role:      domain.AdminRole(role),
		})
	},
}

func init() {
	rootCmd.Flags().StringVar(&email, "email", "", "Admin email (required)")
	rootCmd.Flags().StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password (default: $ADMIN_PASSWORD)")
	rootCmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	rootCmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	rootCmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "admin or super-admin")
	rootCmd.MarkFlagRequired("email")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "create_admin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in services.AdminInput) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize database
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()
	db, err := database.GetDB()
	if err != nil {
		return err
	}

	auth := services.NewAuthService(db, util.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.TokenTTL()))
	user, err := auth.CreateAdmin(ctx, in)
	if err != nil {
		return err
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("ID: %d\nEmail: %s\nName: %s\nRole: %s\n", user.ID, user.Email, user.FullName(), user.Role)
	return nil
}
