package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "settled-cli",
		Short: "Settled CLI tool",
		Long:  `A command line interface for triggering and inspecting settlement runs.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the settlement API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Request timeout")

	// Settlement commands
	settleCmd := &cobra.Command{
		Use:   "settle",
		Short: "Trigger settlement batches",
	}

	var targetDate string

	loansCmd := &cobra.Command{
		Use:   "loans",
		Short: "Run the loan repayment batch",
		Run: func(cmd *cobra.Command, args []string) {
			triggerBatch("loans", targetDate)
		},
	}
	loansCmd.Flags().StringVar(&targetDate, "date", "", "Target date (YYYY-MM-DD), defaults to today")

	savingsCmd := &cobra.Command{
		Use:   "savings",
		Short: "Run the savings contribution batch",
		Run: func(cmd *cobra.Command, args []string) {
			triggerBatch("savings", targetDate)
		},
	}
	savingsCmd.Flags().StringVar(&targetDate, "date", "", "Target date (YYYY-MM-DD), defaults to today")

	settleCmd.AddCommand(loansCmd, savingsCmd)
	rootCmd.AddCommand(settleCmd)

	// Run history commands
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Settlement run history",
	}

	var limit, offset int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent settlement runs",
		Run: func(cmd *cobra.Command, args []string) {
			listRuns(limit, offset)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Max runs to return")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Runs to skip")

	runsCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runsCmd)

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	getCmd := &cobra.Command{
		Use:   "get [account-id]",
		Short: "Get one account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0])
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history [account-id]",
		Short: "List an account's ledger entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0] + "/history")
		},
	}

	accountCmd.AddCommand(getCmd, historyCmd)
	rootCmd.AddCommand(accountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func triggerBatch(batch, date string) {
	path := "/api/v1/settlements/" + batch
	if date != "" {
		path += "?date=" + date
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", nil)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Printf("%s batch completed\n", batch)
	case http.StatusConflict:
		fmt.Printf("%s batch already running\n", batch)
		os.Exit(1)
	default:
		fmt.Printf("%s batch FAILED (Status: %d)\nResponse: %s\n", batch, resp.StatusCode, truncate(string(body), 500))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

func listRuns(limit, offset int) {
	getJSON(fmt.Sprintf("/api/v1/settlements/runs?limit=%d&offset=%d", limit, offset))
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, truncate(string(body), 500))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return strings.Repeat(".", max)
	}
	return s[:max-3] + "..."
}
