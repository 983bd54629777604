package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yungbote/hansard-backend/internal/app"
	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/modules/debates/steps"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func main() {
	var (
		dates     idList
		ids       idList
		from      string
		to        string
		latest    bool
		house     string
		aiMode    string
		skipAI    bool
		skipIndex bool
		dryRun    bool
	)
	flag.Var(&dates, "date", "sitting day YYYY-MM-DD (repeatable)")
	flag.Var(&ids, "id", "debate ext id (repeatable)")
	flag.StringVar(&from, "from", "", "first sitting day of a range, YYYY-MM-DD")
	flag.StringVar(&to, "to", "", "last sitting day of a range, YYYY-MM-DD (defaults to -from)")
	flag.BoolVar(&latest, "latest", false, "process the most recent sitting day")
	flag.StringVar(&house, "house", "both", "commons, lords or both")
	flag.StringVar(&aiMode, "ai-mode", string(steps.AIModeReplace), "replace or merge stored AI fields")
	flag.BoolVar(&skipAI, "skip-ai", false, "persist stats without running analysis")
	flag.BoolVar(&skipIndex, "skip-index", false, "do not upload documents to the vector index")
	flag.BoolVar(&dryRun, "dry-run", false, "classify and compute stats only; nothing is written")
	flag.Parse()

	mode, ok := steps.ParseAIMode(aiMode)
	if !ok {
		fmt.Printf("invalid -ai-mode %q\n", aiMode)
		os.Exit(2)
	}
	houses, err := parseHouses(house)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	if from != "" {
		span, err := dateRange(from, to)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		dates = append(dates, span...)
	}
	if len(dates) == 0 && len(ids) == 0 && !latest {
		fmt.Println("nothing to do: pass -date, -from, -id or -latest")
		os.Exit(2)
	}

	opts := steps.ProcessOptions{AIMode: mode, SkipAI: skipAI, SkipIndex: skipIndex, DryRun: dryRun}
	application, err := app.New(app.Options{NeedOpenAI: !dryRun && (!skipAI || !skipIndex)})
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := application.Runner.Run(ctx, steps.RunRequest{
		Dates:     dates,
		Houses:    houses,
		DebateIDs: ids,
		Latest:    latest,
		Options:   opts,
	})
	if err != nil {
		application.Log.Error("Run failed", "error", err)
		application.Close()
		os.Exit(1)
	}
	fmt.Printf("done; run=%s success=%d failed=%d skipped=%d\n", res.RunID, res.Success, res.Failed, res.Skipped)
}

func parseHouses(s string) ([]debates.House, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "all":
		return []debates.House{debates.HouseCommons, debates.HouseLords}, nil
	}
	h, ok := debates.ParseHouse(s)
	if !ok {
		return nil, fmt.Errorf("invalid -house %q", s)
	}
	return []debates.House{h}, nil
}

// dateRange expands from..to inclusive. Non-sitting days list no debates.
func dateRange(from, to string) ([]string, error) {
	start, err := time.Parse("2006-01-02", strings.TrimSpace(from))
	if err != nil {
		return nil, fmt.Errorf("invalid -from: %w", err)
	}
	end := start
	if strings.TrimSpace(to) != "" {
		if end, err = time.Parse("2006-01-02", strings.TrimSpace(to)); err != nil {
			return nil, fmt.Errorf("invalid -to: %w", err)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format("2006-01-02"))
	}
	return out, nil
}
