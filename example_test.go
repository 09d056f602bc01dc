package parsetrail_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/parsetrail"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
)

// cannedService answers every request with the same top-down trace.
type cannedService struct{}

func (cannedService) Parse(ctx context.Context, req ports.ParseRequest) ([]domain.Step, error) {
	return []domain.Step{
		{Action: domain.ActionExpand, Rule: domain.NewRule("np", "det", "n"), Stack: []string{"np"}},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("det", "[the]"), Stack: []string{"n", "det"}},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("n", "[cat]"), Stack: []string{"n"}, InputIndex: 1},
	}, nil
}

// ExampleNew shows a full replay against an in-memory session store.
func ExampleNew() {
	p := parsetrail.New(cannedService{}, parsetrail.WithStartSymbol("np"))
	ctx := context.Background()

	view, err := p.Parse(ctx, "demo", parsetrail.Input{
		Sentence: "the cat",
		Grammar:  "np --> det,n\ndet --> [the]\nn --> [cat]",
		Strategy: "top-down",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(view.Indicator)

	for {
		view, moved, err := p.Next(ctx, "demo")
		if err != nil {
			log.Fatal(err)
		}
		if !moved {
			fmt.Println("at last step:", view.Indicator)
			break
		}
		fmt.Println(view.History[view.Cursor])
	}
	// Output:
	// Step: 1
	// Step 2: [det, n] | Input: 0
	// Step 3: [n] | Input: 1
	// at last step: Step: 3
}
