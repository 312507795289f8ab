package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"losiento-lite/internal/store"
	"losiento-lite/replay"
)

func main() {
	asJSON := flag.Bool("json", false, "print reports as JSON")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: losiento-verify [-json] <game-id>...")
		os.Exit(2)
	}

	st, mode, err := store.NewFromEnv()
	if err != nil {
		log.Fatalf("[Verify] Failed to init game store: %v", err)
	}
	defer st.Close()
	log.Printf("[Verify] Store mode: %s", mode)

	failed := false
	for _, gameID := range flag.Args() {
		report, err := replay.VerifyGame(st, gameID)
		if err != nil {
			failed = true
			fmt.Printf("%s: FAIL %v\n", gameID, err)
			continue
		}
		if *asJSON {
			out, _ := json.Marshal(report)
			fmt.Println(string(out))
			continue
		}
		fmt.Printf("%s: OK phase=%s entries=%d turns=%d hash=%s\n",
			gameID, report.Phase, report.Entries, report.Turns, report.FinalHash)
	}
	if failed {
		os.Exit(1)
	}
}
