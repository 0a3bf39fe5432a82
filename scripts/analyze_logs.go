package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type logLine struct {
	Level  string  `json:"level"`
	Msg    string  `json:"message"`
	Error  string  `json:"error"`
	UserID string  `json:"user_id"`
	PlanID string  `json:"plan_id"`
	Reason string  `json:"reason"`
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
	Path   string  `json:"path"`
	Status int     `json:"status"`
}

type LogStats struct {
	Lines           int
	Unparsed        int
	TotalErrors     int
	OrdersCreated   int
	OrderFailures   int
	Applied         int
	AlreadyApplied  int
	FreeActivations int
	Rejected        int
	GatewayFailures int
	WebhookRejected int
	Revenue         float64
	Requests        int
	ClientErrors    int
	ServerErrors    int
	PlanSales       map[string]int
	RejectReasons   map[string]int
	UserActivities  map[string]int
	ErrorPatterns   map[string]int
}

func main() {
	// Get today's date for log file names
	today := time.Now().Format("2006-01-02")
	logDir := flag.String("dir", "./logs", "directory holding app-<date>.log files")
	date := flag.String("date", today, "day to analyze (YYYY-MM-DD)")
	flag.Parse()

	stats := &LogStats{
		PlanSales:      make(map[string]int),
		RejectReasons:  make(map[string]int),
		UserActivities: make(map[string]int),
		ErrorPatterns:  make(map[string]int),
	}

	logFile := filepath.Join(*logDir, fmt.Sprintf("app-%s.log", *date))
	if err := analyzeLogFile(logFile, stats); err != nil {
		fmt.Printf("Error reading log file %s: %v\n", logFile, err)
		os.Exit(1)
	}

	printReport(stats)
}

func analyzeLogFile(logFile string, stats *LogStats) error {
	file, err := os.Open(logFile)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.Lines++
		var line logLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			stats.Unparsed++
			continue
		}
		record(line, stats)
	}
	return scanner.Err()
}

func record(line logLine, stats *LogStats) {
	if line.Level == "error" {
		stats.TotalErrors++
		extractErrorPattern(line, stats)
	}
	if line.UserID != "" && strings.HasPrefix(line.Msg, "billing.") {
		stats.UserActivities[line.UserID]++
	}

	switch line.Msg {
	case "billing.order_created":
		stats.OrdersCreated++
	case "billing.create_order.failed":
		stats.OrderFailures++
	case "billing.entitlement.applied":
		stats.Applied++
		stats.Revenue += line.Amount
		stats.PlanSales[line.PlanID]++
	case "billing.entitlement.already_applied":
		stats.AlreadyApplied++
	case "billing.free_plan.activated":
		stats.FreeActivations++
		stats.PlanSales[line.PlanID]++
	case "billing.verify.rejected":
		stats.Rejected++
		stats.RejectReasons[line.Reason]++
	case "billing.verify.invalid_signature":
		stats.Rejected++
		stats.RejectReasons["invalid signature"]++
	case "billing.verify.fetch_failed":
		stats.GatewayFailures++
	case "billing.webhook.rejected":
		stats.WebhookRejected++
	case "http.request":
		stats.Requests++
		switch {
		case line.Status >= 500:
			stats.ServerErrors++
		case line.Status >= 400:
			stats.ClientErrors++
		}
	}
}

func extractErrorPattern(line logLine, stats *LogStats) {
	pattern := line.Msg
	if line.Error != "" {
		// Keep the outermost cause so ids in wrapped errors do not split counts
		pattern += ": " + strings.SplitN(line.Error, ":", 2)[0]
	}
	stats.ErrorPatterns[pattern]++
}

func printReport(stats *LogStats) {
	fmt.Println("\n=== Log Analysis Report ===")
	fmt.Println("Generated:", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf("Lines: %d (unparsed: %d)\n", stats.Lines, stats.Unparsed)

	fmt.Println("\n1. Checkout Statistics:")
	fmt.Printf("   Orders Created: %d\n", stats.OrdersCreated)
	fmt.Printf("   Order Failures: %d\n", stats.OrderFailures)
	fmt.Printf("   Plans Applied: %d\n", stats.Applied)
	fmt.Printf("   Duplicate Confirmations: %d\n", stats.AlreadyApplied)
	fmt.Printf("   Free Activations: %d\n", stats.FreeActivations)
	fmt.Printf("   Revenue: %.2f\n", stats.Revenue)

	fmt.Println("\n2. Rejected Payments:")
	fmt.Printf("   Verifications Rejected: %d\n", stats.Rejected)
	fmt.Printf("   Webhooks Rejected: %d\n", stats.WebhookRejected)
	fmt.Printf("   Gateway Failures: %d\n", stats.GatewayFailures)
	printTop(stats.RejectReasons, 5, "occurrences")

	fmt.Println("\n3. Request Statistics:")
	fmt.Printf("   Total Requests: %d\n", stats.Requests)
	fmt.Printf("   4xx Responses: %d\n", stats.ClientErrors)
	fmt.Printf("   5xx Responses: %d\n", stats.ServerErrors)
	fmt.Printf("   Total Errors: %d\n", stats.TotalErrors)

	fmt.Println("\n4. Plans Sold:")
	printTop(stats.PlanSales, 10, "sales")

	fmt.Println("\n5. Most Active Users:")
	printTop(stats.UserActivities, 5, "billing events")

	fmt.Println("\n6. Most Common Errors:")
	printTop(stats.ErrorPatterns, 5, "occurrences")
}

func printTop(counts map[string]int, limit int, unit string) {
	type entry struct {
		key   string
		count int
	}

	var entries []entry
	for key, count := range counts {
		if key == "" {
			key = "(unknown)"
		}
		entries = append(entries, entry{key, count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].key < entries[j].key
		}
		return entries[i].count > entries[j].count
	})

	for i, e := range entries {
		if i >= limit {
			break
		}
		fmt.Printf("   %s: %d %s\n", e.key, e.count, unit)
	}
}
