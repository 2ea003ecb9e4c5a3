// Command coachcheck plays a list of UCI moves against an evaluation server
// and prints the annotation for each one.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/park285/chess-coach/internal/evalclient"
	"github.com/park285/chess-coach/internal/msgcat"
	"github.com/park285/chess-coach/internal/rules"
	"github.com/park285/chess-coach/internal/sessionstore"
	"github.com/park285/chess-coach/internal/trainer"
)

func main() {
	defaultURL := os.Getenv("EVAL_SERVER_URL")
	if defaultURL == "" {
		defaultURL = "http://127.0.0.1:3001"
	}
	evalURL := flag.String("eval", defaultURL, "evaluation server base URL")
	sideFlag := flag.String("side", "white", "coached side")
	timeout := flag.Duration("timeout", 10*time.Second, "per-move evaluation timeout")
	flag.Parse()

	side, err := rules.ParseSide(*sideFlag)
	if err != nil {
		log.Fatalf("bad -side: %v", err)
	}
	catalog, err := msgcat.New("")
	if err != nil {
		log.Fatalf("messages: %v", err)
	}

	client := evalclient.NewClient(*evalURL, evalclient.WithTimeout(*timeout))
	tr, err := trainer.New(client, sessionstore.NewMemoryStore(time.Hour), catalog, trainer.Config{
		CoachedSide: side,
		EvalTimeout: *timeout,
	}, nil)
	if err != nil {
		log.Fatalf("trainer: %v", err)
	}

	ctx := context.Background()
	fmt.Println(catalog.Text("cli.header", "Evaluation server: "+*evalURL, map[string]any{"URL": *evalURL}))

	hctx, hcancel := context.WithTimeout(ctx, 3*time.Second)
	if err := client.Healthy(hctx); err != nil {
		log.Printf("healthz error: %v", err)
	}
	hcancel()

	session, _, err := tr.Open(ctx, "")
	if err != nil {
		log.Fatalf("open session: %v", err)
	}

	for i, lan := range flag.Args() {
		fmt.Println(catalog.Text("cli.move", lan, map[string]any{"Index": i + 1, "Move": lan}))
		from, to, promo, err := rules.SplitLAN(lan)
		if err != nil {
			fmt.Println(catalog.Text("notice.invalid_move", "Invalid move!", nil))
			continue
		}
		fb := tr.Play(ctx, session, trainer.MoveInput{From: from, To: to, Promotion: promo.Letter()})
		fmt.Println(fb.Message)
		if fb.Kind != trainer.KindEval {
			continue
		}
		fmt.Println(catalog.Text("cli.verdict", fb.Verdict, map[string]any{
			"Verdict": fb.Verdict,
			"Score":   strconv.Itoa(*fb.Score),
		}))
		if fb.Intent != "" {
			fmt.Println(catalog.Text("cli.intent", fb.Intent, map[string]any{"Intent": fb.Intent}))
		}
	}

	if msg, over := tr.GameOver(session); over {
		fmt.Println(msg)
	}
}
