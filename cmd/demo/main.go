// Command demo walks through the einlass admission pipeline in process:
// key provisioning, admitted dispatch, the rejection taxonomy, and
// window exhaustion. It talks to no network and needs no configuration.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/auth"
	"github.com/rhuss/einlass/pkg/keystore"
	"github.com/rhuss/einlass/pkg/pipeline"
	"github.com/rhuss/einlass/pkg/provider"
	"github.com/rhuss/einlass/pkg/ratelimit"
)

func main() {
	fmt.Println("=== einlass admission pipeline demo ===")
	fmt.Println()

	ctx := context.Background()

	// 1. Provision two keys in a static table
	table := auth.NewStaticTable([]keystore.Record{
		{
			KeyID:      "client-a",
			SecretHash: keystore.HashSecret("s3cret"),
			Scopes:     []string{"platform:chat"},
		},
		{
			KeyID:      "reporter",
			SecretHash: keystore.HashSecret("r3port"),
			Scopes:     []string{"platform:read"},
		},
	})

	authn, err := auth.New(auth.ModeAPIKey, table)
	if err != nil {
		fmt.Printf("auth setup FAILED: %v\n", err)
		return
	}

	// 2. Assemble the pipeline: auth -> 3 rpm window -> stub backend
	pipe := pipeline.New(authn, ratelimit.NewMemory(3), provider.NewStub("stub-echo"))
	fmt.Println("[1] Pipeline assembled: api_key auth, 3 rpm window, stub backend")

	// 3. Admitted dispatch with the decision trail
	result, err := pipe.Dispatch(ctx, "client-a:s3cret", pipeline.ChatRoute,
		&api.ChatRequest{Prompt: "What is the capital of France?"})
	if err != nil {
		fmt.Printf("dispatch FAILED: %v\n", err)
		return
	}

	data, _ := json.MarshalIndent(result.Response, "", "  ")
	fmt.Printf("\n[2] Admitted dispatch:\n%s\n", data)
	fmt.Printf("    principal: %s\n", result.Principal.KeyID)
	fmt.Printf("    window:    %d of %d remaining, resets at %d\n",
		result.Decision.Remaining, result.Decision.Limit, result.Decision.ResetEpoch)

	// 4. Rejection taxonomy
	_, err = pipe.Dispatch(ctx, "client-a:wrong", pipeline.ChatRoute,
		&api.ChatRequest{Prompt: "hi"})
	printRejection("[3] Wrong secret", err)

	_, err = pipe.Dispatch(ctx, "", pipeline.ChatRoute,
		&api.ChatRequest{Prompt: "hi"})
	printRejection("[4] No credential", err)

	_, err = pipe.Dispatch(ctx, "reporter:r3port", pipeline.ChatRoute,
		&api.ChatRequest{Prompt: "hi"})
	printRejection("[5] Missing scope", err)

	// 5. Window exhaustion: one slot is already used by [2]
	fmt.Println("\n[6] Window exhaustion at 3 rpm:")
	for i := 2; i <= 4; i++ {
		result, err := pipe.Dispatch(ctx, "client-a:s3cret", pipeline.ChatRoute,
			&api.ChatRequest{Prompt: fmt.Sprintf("request %d", i)})
		if err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) {
				fmt.Printf("    request %d: DENIED (%s, retry after %ds)\n",
					i, apiErr.Type, apiErr.RetryAfter)
				continue
			}
			fmt.Printf("    request %d: FAILED (%v)\n", i, err)
			continue
		}
		fmt.Printf("    request %d: admitted, %d remaining\n", i, result.Decision.Remaining)
	}
}

func printRejection(label string, err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		fmt.Printf("\n%s: %s (%s)\n", label, apiErr.Message, apiErr.Type)
		return
	}
	fmt.Printf("\n%s: %v\n", label, err)
}
