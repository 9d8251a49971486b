// taskctl is a thin CLI client over the HTTP API, grounded in the
// original client's list/create/executions/delete command set.
// Usage: taskctl <command> [flags]
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func apiURL() string {
	if v := os.Getenv("API_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func doRequest(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, apiURL()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("API_KEY"); key != "" {
		req.Header.Set("x-api-key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		fmt.Fprintln(os.Stderr, string(respBody))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		fmt.Println(string(respBody))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = doRequest(http.MethodGet, "/tasks", nil)
	case "upcoming":
		err = doRequest(http.MethodGet, "/upcoming", nil)
	case "executions":
		err = runExecutions(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "create":
		err = runCreate(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runExecutions(args []string) error {
	fs := flag.NewFlagSet("executions", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: taskctl executions <task_id>")
	}
	return doRequest(http.MethodGet, "/tasks/"+fs.Arg(0)+"/executions", nil)
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: taskctl delete <task_id>")
	}
	return doRequest(http.MethodDelete, "/tasks/"+fs.Arg(0), nil)
}

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	kind := fs.String("kind", "sleep", "sleep|counter|http")
	schedule := fs.String("schedule", "interval", "interval|once|cron")
	intervalSeconds := fs.Int("interval-seconds", 0, "required for schedule=interval")
	nextRunAt := fs.String("next-run-at", "", "RFC3339 instant, required for schedule=once")
	cronExpr := fs.String("cron-expression", "", "required for schedule=cron")
	duration := fs.Int("duration", 0, "sleep task duration seconds")
	url := fs.String("url", "", "http task url")
	timeoutSeconds := fs.Int("timeout-seconds", 0, "soft timeout seconds")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: taskctl create <name> [flags]")
	}

	params := map[string]any{}
	if *duration > 0 {
		params["duration"] = *duration
	}
	if *url != "" {
		params["url"] = *url
	}

	payload := map[string]any{
		"name":          fs.Arg(0),
		"kind":          *kind,
		"schedule_kind": *schedule,
		"params":        params,
	}
	if *intervalSeconds > 0 {
		payload["interval_seconds"] = *intervalSeconds
	}
	if *nextRunAt != "" {
		payload["next_run_at"] = *nextRunAt
	}
	if *cronExpr != "" {
		payload["cron_expression"] = *cronExpr
	}
	if *timeoutSeconds > 0 {
		payload["timeout_seconds"] = *timeoutSeconds
	}

	return doRequest(http.MethodPost, "/tasks", payload)
}

func usage() {
	fmt.Fprintln(os.Stderr, `taskctl <command> [flags]

Commands:
  list                      list all tasks
  upcoming                  list tasks with a scheduled next run
  create <name> [flags]     create a task
  executions <task_id>      list executions for a task
  delete <task_id>          delete a task`)
}
