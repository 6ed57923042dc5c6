package lendflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/lendflow"
)

// ExampleEngine_Turn drives the first steps of an application without any store.
// Messages queue on the session until the caller drains them.
func ExampleEngine_Turn() {
	engine := lendflow.New()
	ctx := context.Background()

	sess := engine.Start(ctx, "example")
	for _, input := range []string{"loan", "Asha Rao"} {
		if err := engine.Turn(ctx, sess, input); err != nil {
			log.Fatal(err)
		}
	}

	for _, msg := range sess.DrainPending() {
		fmt.Println(msg)
	}
	fmt.Println("State:", sess.State)

	// Output:
	// Hello! I can assist you with a Personal Loan. Type 'loan' to begin.
	// Great, I can help with a Personal Loan. Before we begin, may I have your full name?
	// What loan amount are you looking for?
	// State: SALES_REQUIREMENTS
}
