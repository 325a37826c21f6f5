package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flexprice/coupon-service/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "generate-token",
		Description: "Generate a bearer token for local testing",
		Run:         internal.GenerateToken,
	},
	{
		Name:        "generate-secret",
		Description: "Generate a random signing secret for bearer tokens",
		Run:         internal.GenerateSecret,
	},
	{
		Name:        "seed-coupons",
		Description: "Seed sample coupons and translations into Postgres",
		Run:         internal.SeedCoupons,
	},
	{
		Name:        "kafka-test-connection",
		Description: "Check that the configured Kafka brokers are reachable",
		Run:         internal.TestKafkaConnection,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		userID       string
		permissions  string
		shopIDs      string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&userID, "user-id", "", "User ID the token is issued for")
	flag.StringVar(&permissions, "permissions", "", "Comma separated permissions (super_admin, store_owner, staff, customer)")
	flag.StringVar(&shopIDs, "shop-ids", "", "Comma separated shop IDs the user owns or works for")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-24s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	if userID != "" {
		os.Setenv("USER_ID", userID)
	}
	if permissions != "" {
		os.Setenv("PERMISSIONS", permissions)
	}
	if shopIDs != "" {
		os.Setenv("SHOP_IDS", shopIDs)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
