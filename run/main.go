package main

import (
	"flag"
	"fmt"
	"runtime"

	"github.com/maseology/mmio"
	"go.uber.org/zap"

	devvuln "github.com/VANatHeritage/ConsVision-DevVulnModel"
)

func main() {
	cfp := flag.String("c", "config.yaml", "run control file")
	flag.Parse()

	fmt.Println("")
	tt := mmio.NewTimer()
	defer tt.Lap(fmt.Sprintf("\nRun complete. n processes: %v", runtime.GOMAXPROCS(0)))

	cfg, err := devvuln.LoadConfig(*cfp)
	if err != nil {
		panic(err)
	}
	mmio.MakeDir(cfg.OutDir)
	lg := devvuln.NewLogger(cfg.OutDir + "/devvuln.log")
	defer lg.Sync()
	lg.Info("run control loaded", zap.String("config", *cfp), zap.String("outdir", cfg.OutDir))

	ctx, err := devvuln.NewContext(cfg, lg)
	if err != nil {
		lg.Fatal("load failed", zap.Error(err))
	}
	tt.Print("Domain load complete\n")

	if err := ctx.Run(); err != nil {
		lg.Fatal("run failed", zap.Error(err))
	}
}
