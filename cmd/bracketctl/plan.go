package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/Dosada05/royale-tournaments/brackets"
	"github.com/Dosada05/royale-tournaments/models"
	"github.com/spf13/cobra"
)

type planFlags struct {
	teams      int
	mode       string
	capacity   int
	groups     int
	qualifiers int
	transfer   bool
	seed       uint64
}

func newPlanCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Args:  cobra.ExactArgs(0),
		Short: "Dry-run the qualifier lobby partition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.OutOrStdout(), f)
		},
	}

	p := cmd.Flags()
	p.IntVarP(&f.teams, "teams", "n", 0, "number of eligible teams")
	p.StringVarP(&f.mode, "mode", "m", string(models.ModeSquad), "game mode: solo, duo, trio or squad")
	p.IntVarP(&f.capacity, "capacity", "c", 0, "teams per lobby (default: derived from mode)")
	p.IntVar(&f.groups, "groups", 0, "requested number of lobbies (0: derive)")
	p.IntVar(&f.qualifiers, "qualifiers", 0, "requested qualifiers per lobby (0: derive)")
	p.BoolVar(&f.transfer, "transfer", false, "transfer non-qualified teams to the next lobby")
	p.Uint64Var(&f.seed, "seed", 1, "shuffle seed")
	if err := cmd.MarkFlagRequired("teams"); err != nil {
		panic(err)
	}
	return cmd
}

func runPlan(w io.Writer, f planFlags) error {
	capacity := f.capacity
	if capacity == 0 {
		capacity = models.GameMode(f.mode).DefaultLobbyCapacity()
		if capacity == 0 {
			return fmt.Errorf("unknown mode %q", f.mode)
		}
	}

	var opts brackets.PlanOptions
	if f.groups != 0 {
		opts.Groups = &f.groups
	}
	if f.qualifiers != 0 {
		opts.QualifiersPerGroup = &f.qualifiers
	}
	opts.TransferNonQualified = f.transfer

	plan, err := brackets.PlanLobbies(f.teams, capacity, opts)
	if err != nil {
		return fmt.Errorf("plan lobbies: %w", err)
	}

	teams := make([]string, f.teams)
	for i := range teams {
		teams[i] = fmt.Sprintf("team-%02d", i+1)
	}
	lobbies := brackets.AssignTeams(teams, plan, rand.New(rand.NewPCG(f.seed, f.seed)))

	fmt.Fprintf(w, "teams:               %d\n", plan.TotalTeams)
	fmt.Fprintf(w, "capacity:            %d\n", plan.Capacity)
	fmt.Fprintf(w, "full lobbies:        %d (remainder %d)\n", plan.FullLobbies, plan.Remainder)
	fmt.Fprintf(w, "groups:              %d", plan.Groups)
	if plan.GroupsAdjusted {
		fmt.Fprint(w, " (adjusted)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "qualifiers per group: %d\n", plan.QualifiersPerGroup)
	fmt.Fprintf(w, "transfer:            %t\n", plan.TransferNonQualified)
	for i, lobby := range lobbies {
		fmt.Fprintf(w, "%s (%d): %s\n", brackets.LobbyName(i+1), len(lobby), strings.Join(lobby, ", "))
	}
	return nil
}
