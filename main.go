package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wms-core",
		Short: "창고 슬롯 배치 / 경로 최적화 / 카트 디스패치 서버",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateLayoutCmd())
	rootCmd.AddCommand(generateLayoutCmd())
	rootCmd.AddCommand(planRouteCmd())
	rootCmd.AddCommand(suggestSlotCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
