package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

func (a *App) Main(ctx context.Context) {

	fmt.Println("capsync agent (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("capsync > ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: list, upload <folderId>, retry <folderId>, status, discard <folderId>, login, exit")

		case "list":
			a.List(ctx)

		case "upload", "retry":
			if len(args) == 0 {
				fmt.Printf("Usage: %s <folderId>\n", cmd)
				continue
			}
			a.Upload(args[0])

		case "status":
			a.Status()

		case "discard":
			if len(args) == 0 {
				fmt.Println("Usage: discard <folderId>")
				continue
			}
			a.coordinator.UpdateOnDiscardComplete(args[0])
			fmt.Printf("Folder %s removed from the status report\n", args[0])

		case "login":
			a.Login(ctx)

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

// Upload kicks off a fire-and-forget attempt; outcome lands in `status`.
func (a *App) Upload(folderID string) {
	a.coordinator.StartUpload(folderID)
	fmt.Printf("Upload started for folder %s\n", folderID)
}

func (a *App) Login(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		fmt.Println("error reading username:", err)
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println("error reading password:", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	token, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		fmt.Println("login failed:", err)
		return
	}
	if err := a.tokens.Store(token); err != nil {
		fmt.Println("could not save token:", err)
		return
	}
	fmt.Println("Logged in.")
}
