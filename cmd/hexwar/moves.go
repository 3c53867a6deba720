package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/render"
	"github.com/talgya/hexwar/internal/world"
)

var (
	flagPlayer  int
	flagPreview bool
)

var movesCmd = &cobra.Command{
	Use:   "moves <q,r,s>",
	Short: "List legal moves for an army",
	Long: `List the hexes the army at the given coordinate can reach this turn,
and the hostile armies it can attack. Coordinates are "q,r,s" or "q,r".

Examples:
  hexwar moves 0,0,0
  hexwar moves -3,2 --player 1 --preview`,
	Args: cobra.ExactArgs(1),
	Run:  runMoves,
}

func init() {
	movesCmd.Flags().IntVar(&flagPlayer, "player", -1, "Player to move as (default: the army's owner)")
	movesCmd.Flags().BoolVar(&flagPreview, "preview", false, "Print the map with reachable hexes marked")
}

func runMoves(_ *cobra.Command, args []string) {
	src, err := hex.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid coordinate %q: %v\n", args[0], err)
		os.Exit(1)
	}

	w := loadMap()
	t, ok := w.Get(src)
	if !ok || t.Army == nil {
		fmt.Fprintf(os.Stderr, "No army at %s\n", src)
		os.Exit(1)
	}
	player := t.Army.Owner
	if flagPlayer >= 0 {
		player = world.PlayerIndex(flagPlayer)
	}

	policy := movePolicy()
	moves := w.LegalMoves(src, player, policy)
	targets := w.AttackTargets(src, player, policy)

	fmt.Printf("Army at %s: owner %d, manpower %d, morale %d\n",
		src, t.Army.Owner, t.Army.Manpower, t.Army.Morale)
	fmt.Printf("Legal moves (%d):\n", len(moves))
	for _, c := range moves {
		fmt.Printf("  %s\n", c)
	}
	if len(targets) > 0 {
		fmt.Printf("Attack targets (%d):\n", len(targets))
		for _, c := range targets {
			fmt.Printf("  %s\n", c)
		}
	}

	if flagPreview {
		fmt.Println()
		fmt.Print(render.Terminal(w, moves))
	}
}
