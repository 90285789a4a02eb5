package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"voxrouter/internal/ipc"
	"voxrouter/internal/router"
	"voxrouter/internal/tts"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	history := cli.BoolP("history", "H", false, "Show command history")
	limit := cli.IntP("limit", "n", 10, "History entries to show")
	list := cli.Bool("tools", false, "List registered tools")
	asJSON := cli.Bool("json", false, "Print the raw reply")
	speak := cli.Bool("speak", false, "Voice the reply with espeak-ng")
	voice := cli.String("voice", "en", "espeak-ng voice")
	timeout := cli.DurationP("timeout", "t", 60*time.Second, "Request timeout")
	cli.Parse()

	req := ipc.Request{Cmd: ipc.CmdCommand, Text: strings.Join(cli.Args(), " ")}
	switch {
	case *history:
		req = ipc.Request{Cmd: ipc.CmdHistory, Limit: *limit}
	case *list:
		req = ipc.Request{Cmd: ipc.CmdTools}
	case req.Text == "":
		fmt.Fprintln(os.Stderr, "usage: vox-ctl [flags] <utterance>")
		cli.PrintDefaults()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := ipc.SendCommand(ctx, *socket, req)
	if err != nil {
		fmt.Println("vox-daemon not running:", err)
		os.Exit(1)
	}
	if !reply.OK {
		fmt.Fprintln(os.Stderr, "error:", reply.Error)
		os.Exit(1)
	}

	if *asJSON || req.Cmd != ipc.CmdCommand {
		fmt.Println(string(reply.Payload))
		return
	}

	var out struct {
		Command  router.VoiceCommand    `json:"command"`
		Response router.CommandResponse `json:"response"`
	}
	if err := json.Unmarshal(reply.Payload, &out); err != nil {
		fmt.Fprintln(os.Stderr, "bad reply:", err)
		os.Exit(1)
	}
	fmt.Printf("[%s %.2f] %s\n", out.Command.Intent, out.Command.Confidence, out.Response.Message)
	if *speak && out.Response.Speak {
		if err := tts.NewEspeak(*voice).Speak(ctx, out.Response.Message); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to voice out:", err)
		}
	}
	if !out.Response.Success {
		os.Exit(1)
	}
}
