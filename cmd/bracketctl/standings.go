package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/models"
	"github.com/spf13/cobra"
)

func newStandingsCmd() *cobra.Command {
	var (
		path   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "standings",
		Args:  cobra.ExactArgs(0),
		Short: "Compute standings from a TOML file with game results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read games file: %w", err)
			}
			standings, err := computeStandings(data)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(standings)
			}
			return printStandings(cmd.OutOrStdout(), standings)
		},
	}

	p := cmd.Flags()
	p.StringVarP(&path, "file", "f", "", "games file")
	p.BoolVar(&asJSON, "json", false, "print standings as JSON")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
	return cmd
}

func parseGamesFile(data []byte) (*GamesFile, error) {
	var f GamesFile
	meta, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("unmarshal games file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in games file: %s", strings.Join(keys, ", "))
	}
	f.FillDefaults()
	if len(f.Teams) < 1 {
		return nil, fmt.Errorf("games file lists no teams")
	}
	return &f, nil
}

func computeStandings(data []byte) ([]models.Standing, error) {
	f, err := parseGamesFile(data)
	if err != nil {
		return nil, err
	}
	ps, err := f.PointsSystem()
	if err != nil {
		return nil, err
	}
	prizes, err := f.PrizeTable()
	if err != nil {
		return nil, err
	}
	games, err := f.ScoredGames(ps)
	if err != nil {
		return nil, err
	}

	standings := brackets.Aggregate(games, f.Teams, float64(f.Capacity))
	brackets.ApplyPrizes(standings, prizes)
	return standings, nil
}

func printStandings(w io.Writer, standings []models.Standing) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tPOINTS\tKILLS\tWINS\tAVG\tGAMES\tPRIZE")
	for _, s := range standings {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%.2f\t%d\t%.2f\n",
			s.Rank, s.TeamID, s.TotalPoints, s.TotalKills, s.Wins, s.AvgPlacement, s.GamesPlayed, s.Earnings)
	}
	return tw.Flush()
}
