package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Status renders the coordinator's live report.
func (a *App) Status() {
	report := a.coordinator.GetStatusReport()
	if len(report) == 0 {
		fmt.Println("No uploads tracked in this session.")
		return
	}

	ids := make([]string, 0, len(report))
	for id := range report {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Folder", "Status", "Progress"})
	for _, id := range ids {
		st := report[id]
		tw.AppendRow(table.Row{id, string(st.State), fmt.Sprintf("%d%%", st.Progress)})
	}
	tw.Render()
}

// List renders every folder known to the persisted state.
func (a *App) List(ctx context.Context) {
	st, err := a.store.Load(ctx)
	if err != nil {
		fmt.Println("could not load state:", err)
		return
	}
	if len(st.Folders) == 0 {
		fmt.Println("No recording folders.")
		return
	}

	ids := make([]string, 0, len(st.Folders))
	for id := range st.Folders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Folder", "Uploaded", "Uploaded At", "Last Error"})
	for _, id := range ids {
		f := st.Folders[id]
		uploadedAt := ""
		if f.UploadedAt != nil {
			uploadedAt = f.UploadedAt.Format("2006-01-02 15:04:05")
		}
		tw.AppendRow(table.Row{id, f.IsUploaded, uploadedAt, f.UploadError})
	}
	tw.Render()
}
