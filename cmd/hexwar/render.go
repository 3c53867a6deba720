package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print a terminal preview",
	Long: `Print the map file as coloured rows of hexes.

  @ army   C capital   S satellite capital   c city
  P port   A airport   ~ water               . farmland`,
	Run: runRender,
}

func runRender(_ *cobra.Command, _ []string) {
	w := loadMap()
	fmt.Print(render.Terminal(w, nil))
}
