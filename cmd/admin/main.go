package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	_ "modernc.org/sqlite"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "sessions":
			sessionsCmd(os.Args[2:])
			return
		case "deliveries":
			deliveriesCmd(os.Args[2:])
			return
		}
	}
	leaderboardCmd(os.Args[1:])
}

func openIndex(dataDir string) *sql.DB {
	path := filepath.Join(dataDir, "index.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(1)
	return db
}

func leaderboardCmd(args []string) {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	limit := fs.Int("n", 10, "number of rows")
	_ = fs.Parse(args)

	db := openIndex(*dataDir)
	defer db.Close()

	rows, err := db.Query(
		`SELECT session_id, tier, city, delivered, late, lost, score, rank
		 FROM sessions WHERE finished_at IS NOT NULL
		 ORDER BY score DESC, session_id LIMIT ?`, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tTIER\tCITY\tDELIVERED\tLATE\tLOST\tSCORE\tRANK")
	for rows.Next() {
		var (
			id, tier, city, rank  string
			delivered, late, lost int
			score                 float64
		)
		if err := rows.Scan(&id, &tier, &city, &delivered, &late, &lost, &score, &rank); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.0f\t%s\n", id, tier, city, delivered, late, lost, score, rank)
	}
	_ = w.Flush()
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func sessionsCmd(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	limit := fs.Int("n", 20, "number of rows")
	_ = fs.Parse(args)

	db := openIndex(*dataDir)
	defer db.Close()

	rows, err := db.Query(
		`SELECT session_id, tier, seed, city, started_at, COALESCE(finished_at,''), ticks, earnings
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tTIER\tSEED\tCITY\tSTARTED\tFINISHED\tTICKS\tEARNINGS")
	for rows.Next() {
		var (
			id, tier, city, started, finished string
			seed, ticks                       int64
			earnings                          float64
		)
		if err := rows.Scan(&id, &tier, &seed, &city, &started, &finished, &ticks, &earnings); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		if finished == "" {
			finished = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%d\t%.1f\n", id, tier, seed, city, started, finished, ticks, earnings)
	}
	_ = w.Flush()
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func deliveriesCmd(args []string) {
	fs := flag.NewFlagSet("deliveries", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	session := fs.String("session", "", "session id")
	_ = fs.Parse(args)

	if *session == "" {
		fmt.Fprintln(os.Stderr, "missing -session")
		os.Exit(2)
	}

	db := openIndex(*dataDir)
	defer db.Close()

	rows, err := db.Query(
		`SELECT order_id, payout, accepted_tick, picked_tick, delivered_tick, overtime_ticks, status
		 FROM deliveries WHERE session_id = ? ORDER BY accepted_tick`, *session)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tPAYOUT\tACCEPTED\tPICKED\tDELIVERED\tOVERTIME\tSTATUS")
	for rows.Next() {
		var (
			id, status                        string
			accepted, picked, delivered, over int64
			payout                            float64
		)
		if err := rows.Scan(&id, &payout, &accepted, &picked, &delivered, &over, &status); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Fprintf(w, "%s\t%.1f\t%d\t%d\t%d\t%d\t%s\n", id, payout, accepted, picked, delivered, over, status)
	}
	_ = w.Flush()
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}
