/*
Package lendflow is a turn-based conversational engine for personal loan origination.

It guides an applicant from the first "loan" message through data collection,
eligibility, amount negotiation, PAN verification, final approval and the
sanction letter. The conversation is a deterministic state machine: given the
same session and input, the outcome is always the same.

# Concept

A Session holds the workflow state, the conversation history, the collected
data and a queue of pending bot messages. Each applicant input is handed to
the state machine, which answers with a TransitionResult (messages to queue,
next state, fields to set or clear). The Engine applies that result and then
runs the automatic states (underwriting and sanction) until the applicant has
to answer again. Hosts (terminal, HTTP, MCP) deliver pending messages at their
own pace, one per render cycle.

# Usage

	eng := lendflow.New(lendflow.WithArtifactGenerator(pdf.New("./letters")))

	ctx := context.Background()
	sess := eng.Start(ctx, "")

	for _, input := range []string{"loan", "Asha Rao", "2 lakh", "income is 20k", "yes", "ABCDE1234F"} {
		if err := eng.Turn(ctx, sess, input); err != nil {
			log.Fatal(err)
		}
		for _, msg := range sess.DrainPending() {
			fmt.Println(msg)
		}
	}
*/
package lendflow
