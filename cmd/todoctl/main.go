package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	orgtodo "github.com/dangerclosesec/orgtodo"
	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/config"
	"github.com/dangerclosesec/orgtodo/internal/database"
	"github.com/dangerclosesec/orgtodo/sdk/client"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	timeout   time.Duration
	verbose   bool

	migrateSteps int

	tokenUser   string
	tokenEmail  string
	tokenGroups []string

	todoOrg string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("TODO_SERVER", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", os.Getenv("TODO_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User ID")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email address")
	tokenCmd.Flags().StringSliceVar(&tokenGroups, "group", nil, "Group claim, repeatable (Admin, Member)")
	tokenCmd.MarkFlagRequired("user")

	permifyCmd.AddCommand(writeSchemaCmd)

	orgCmd.AddCommand(orgListCmd, orgCreateCmd, orgDeleteCmd, orgDeletionCmd)
	memberCmd.AddCommand(memberListCmd, memberMineCmd, memberAddCmd, memberRemoveCmd, memberAcceptCmd)

	todoListCmd.Flags().StringVar(&todoOrg, "org", "", "Only list todos of this organization")
	todoCmd.AddCommand(todoListCmd, todoCreateCmd, todoToggleCmd, todoDeleteCmd)

	rootCmd.AddCommand(migrateCmd, tokenCmd, permifyCmd, orgCmd, memberCmd, todoCmd)
}

var rootCmd = &cobra.Command{
	Use:   "todoctl",
	Short: "todoctl administers the organization todo service",
	Long:  `todoctl runs database migrations, mints development tokens, writes the Permify schema and calls the API.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the SQL migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if err := database.Migrate(cfg.URL(), 0); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
		fmt.Println("Migrations applied successfully")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Run: func(cmd *cobra.Command, args []string) {
		if migrateSteps <= 0 {
			log.Fatal("--steps must be positive")
		}
		cfg := config.Load()
		if err := database.Migrate(cfg.URL(), -migrateSteps); err != nil {
			log.Fatalf("Failed to roll back: %v", err)
		}
		fmt.Printf("Rolled back %d migration(s)\n", migrateSteps)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with JWT_SECRET",
	Long:  `Mint a bearer token for development. Production tokens come from the identity provider.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		tm := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)
		signed, err := tm.Generate(tokenUser, tokenEmail, tokenGroups...)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(signed)
	},
}

var permifyCmd = &cobra.Command{
	Use:   "permify",
	Short: "Manage the Permify schema",
}

var writeSchemaCmd = &cobra.Command{
	Use:   "write-schema",
	Short: "Write the embedded schema to Permify",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		svc, err := auth.NewPermifyService(cfg.Permify.Endpoint, auth.WithTenant(cfg.Permify.Tenant))
		if err != nil {
			log.Fatalf("Failed to connect to Permify: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		version, err := svc.WriteSchema(ctx, orgtodo.PermifySchema)
		if err != nil {
			log.Fatalf("Failed to write schema: %v", err)
		}
		fmt.Printf("Schema written, set PERMIFY_SCHEMA_VERSION=%s\n", version)
		if verbose {
			fmt.Println(orgtodo.PermifySchema)
		}
	},
}

var orgCmd = &cobra.Command{Use: "org", Short: "Manage organizations"}

var orgListCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible organizations",
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.ListOrganizations(ctx, nil)
		})
	},
}

var orgCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an organization",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.CreateOrganization(ctx, args[0])
		})
	},
}

var orgDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an organization with its todos and members",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.DeleteOrganization(ctx, id)
		})
	},
}

var orgDeletionCmd = &cobra.Command{
	Use:   "deletion [id]",
	Short: "Show the latest deletion job of an organization",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.OrganizationDeletion(ctx, id)
		})
	},
}

var memberCmd = &cobra.Command{Use: "member", Short: "Manage organization members"}

var memberListCmd = &cobra.Command{
	Use:   "list [organization-id]",
	Short: "List the members of an organization",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		orgID := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.ListMembers(ctx, client.Eq("organizationID", orgID))
		})
	},
}

var memberMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List memberships addressed to the token's email",
	Run: func(cmd *cobra.Command, args []string) {
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.MyMemberships(ctx)
		})
	},
}

var memberAddCmd = &cobra.Command{
	Use:   "add [organization-id] [email]",
	Short: "Invite a member by email",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		orgID := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.AddMember(ctx, orgID, args[1])
		})
	},
}

var memberRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a membership",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return nil, c.RemoveMember(ctx, id)
		})
	},
}

var memberAcceptCmd = &cobra.Command{
	Use:   "accept [id]",
	Short: "Accept a pending invitation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.AcceptMember(ctx, id)
		})
	},
}

var todoCmd = &cobra.Command{Use: "todo", Short: "Manage todos"}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos",
	Run: func(cmd *cobra.Command, args []string) {
		var filter *client.Filter
		if todoOrg != "" {
			filter = client.Eq("organizationID", parseID(todoOrg))
		}
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.ListTodos(ctx, filter)
		})
	},
}

var todoCreateCmd = &cobra.Command{
	Use:   "create [organization-id] [content]",
	Short: "Create a todo",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		orgID := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.CreateTodo(ctx, orgID, args[1])
		})
	},
}

var todoToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Flip a todo's done flag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return c.ToggleTodo(ctx, id)
		})
	},
}

var todoDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		withClient(func(ctx context.Context, c *client.Client) (interface{}, error) {
			return nil, c.DeleteTodo(ctx, id)
		})
	},
}

// withClient runs fn against the API and prints its result as JSON.
func withClient(fn func(ctx context.Context, c *client.Client) (interface{}, error)) {
	if token == "" {
		log.Fatal("A token is required, pass --token or set TODO_TOKEN")
	}

	c := client.NewClient(&client.Config{
		BaseURL: serverURL,
		Token:   token,
		Timeout: timeout,
	})

	result, err := fn(context.Background(), c)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	if result == nil {
		fmt.Println("ok")
		return
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		log.Fatalf("Invalid ID %q: %v", s, err)
	}
	return id
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
