package stash_test

import (
	"fmt"

	"github.com/plus3/pulse/stash"
	"github.com/plus3/pulse/world"
)

// ExamplePlanner places a stack of gems. The partial stack already in the
// stash takes them; once it would overflow, the next free cell is used.
func ExamplePlanner() {
	cfg := stash.DefaultConfig()
	cfg.Pages = 2
	planner := stash.NewPlanner(cfg)

	grid := stash.NewGrid(stash.Entry{
		AnnID: 1, SNO: 77, BaseType: world.BaseGem,
		Quantity: 12, MaxStack: 20, Column: 0, Row: 10,
	})
	gems := stash.Entry{AnnID: 2, SNO: 77, BaseType: world.BaseGem, Quantity: 5, MaxStack: 20}

	fmt.Printf("%+v\n", planner.Place(gems, grid))

	gems.Quantity = 9
	fmt.Printf("%+v\n", planner.Place(gems, grid))
	// Output:
	// {Page:1 Column:0 Row:10 Stack:true}
	// {Page:1 Column:1 Row:10 Stack:false}
}
