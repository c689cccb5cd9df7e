package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [<args>]")
		fmt.Fprintln(os.Stderr, "Example: mcp-client ./suppcheck-mcp")
		os.Exit(2)
	}

	ctx := context.Background()

	// Start the server as a subprocess
	cmd := exec.Command(args[0], args[1:]...)
	transport := &mcp.CommandTransport{Command: cmd}

	// Create MCP client
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "suppcheck-client",
		Version: "1.0.0",
	}, nil)

	// Connect to the server
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	fmt.Println("Connected to SuppCheck MCP Server!")
	fmt.Println("Available commands:")
	fmt.Println("  /tools                       - List available tools")
	fmt.Println("  /check <supps> ; <meds>      - Check interactions (comma-separated lists)")
	fmt.Println("  /normalize <name>            - Resolve a free-text name to a graph entity")
	fmt.Println("  /info <supplement>           - Supplement profile from the graph")
	fmt.Println("  /symptom <symptom>           - Supplements recorded to treat a symptom")
	fmt.Println("  /history [session] [limit]   - Past consultations")
	fmt.Println("  /graph <cypher>              - Execute Cypher query")
	fmt.Println("  /exit                        - Exit the client")
	fmt.Println("  <question>                   - Ask the advisor using GraphRAG")
	fmt.Println()

	// Interactive REPL
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case input == "/exit":
			fmt.Println("Goodbye!")
			return

		case input == "/tools":
			listTools(ctx, session)

		case strings.HasPrefix(input, "/check "):
			supps, meds, ok := splitCheckInput(strings.TrimPrefix(input, "/check "))
			if !ok {
				fmt.Println("Usage: /check ginkgo, st johns wort ; warfarin, sertraline")
				continue
			}
			callTool(ctx, session, "check_interactions", map[string]interface{}{
				"supplements": supps,
				"medications": meds,
			})

		case strings.HasPrefix(input, "/normalize "):
			callTool(ctx, session, "normalize_entity", map[string]interface{}{
				"name": strings.TrimPrefix(input, "/normalize "),
			})

		case strings.HasPrefix(input, "/info "):
			callTool(ctx, session, "get_supplement_info", map[string]interface{}{
				"name": strings.TrimPrefix(input, "/info "),
			})

		case strings.HasPrefix(input, "/symptom "):
			callTool(ctx, session, "find_supplements_for_symptom", map[string]interface{}{
				"symptom": strings.TrimPrefix(input, "/symptom "),
			})

		case strings.HasPrefix(input, "/history"):
			parts := strings.Fields(input)
			args := map[string]interface{}{}
			if len(parts) > 1 {
				args["session_id"] = parts[1]
			}
			if len(parts) > 2 {
				if limit, err := strconv.Atoi(parts[2]); err == nil {
					args["limit"] = limit
				}
			}
			callTool(ctx, session, "get_check_history", args)

		case strings.HasPrefix(input, "/graph "):
			cypher := strings.TrimPrefix(input, "/graph ")
			callTool(ctx, session, "query_graph", map[string]interface{}{
				"cypher": cypher,
			})

		default:
			// Treat as a question for ask_advisor
			callTool(ctx, session, "ask_advisor", map[string]interface{}{
				"question": input,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Scanner error: %v", err)
	}
}

// splitCheckInput parses "ginkgo, kava ; warfarin" into the two name lists.
func splitCheckInput(input string) ([]string, []string, bool) {
	halves := strings.SplitN(input, ";", 2)
	if len(halves) != 2 {
		return nil, nil, false
	}
	supps := splitList(halves[0])
	meds := splitList(halves[1])
	if len(supps) == 0 || len(meds) == 0 {
		return nil, nil, false
	}
	return supps, meds, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func listTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("Available Tools:")
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			log.Printf("Error listing tools: %v", err)
			return
		}
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	fmt.Println()
}

func callTool(ctx context.Context, session *mcp.ClientSession, toolName string, args map[string]interface{}) {
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		log.Printf("Error calling tool: %v", err)
		return
	}

	printResult(result)
}

func printResult(result *mcp.CallToolResult) {
	if result.IsError {
		fmt.Printf("❌ Error: ")
	} else {
		fmt.Printf("✅ Result: ")
	}

	// Try to pretty-print the content
	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcp.TextContent:
			fmt.Println(v.Text)
		default:
			// Try JSON marshaling for other types
			jsonData, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Printf("%+v\n", content)
			} else {
				fmt.Println(string(jsonData))
			}
		}
	}
	fmt.Println()
}
