// Package render prints query results for the command line.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/squery/pkg/ssq"
)

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Players writes the player list as a table.
func Players(w io.Writer, players []ssq.Player) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"#", "Name", "Score", "Time"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, p := range players {
		tw.Append([]string{
			strconv.Itoa(int(p.Index)),
			p.Name,
			strconv.Itoa(int(p.Score)),
			p.Played().Truncate(time.Second).String(),
		})
	}

	tw.SetFooter([]string{"", "", "Total", strconv.Itoa(len(players))})
	tw.Render()
}

// Info writes the A2S_INFO answer as a two-column table.
func Info(w io.Writer, info *a2s.Info) {
	tw := tablewriter.NewWriter(w)
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	tw.AppendBulk([][]string{
		{"Name", info.Name},
		{"Map", info.Map},
		{"Game", info.Game},
		{"Version", info.Version},
		{"Players", fmt.Sprintf("%d/%d", info.Players, info.MaxPlayers)},
		{"OS", info.Environment.String()},
	})
	tw.Render()
}
