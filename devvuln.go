// devvuln trains a development-vulnerability (land-use conversion risk)
// model from labeled point samples and a stack of covariate rasters, and
// applies it over the model grid to produce calibrated risk surfaces.
//
// The pipeline: variable selection (permutation importance + correlation
// clustering), balanced bagged-tree training, spatial k-fold cross
// validation, block-parallel raster inference, conservation-lands
// adjustment, and independent validation.
package devvuln

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the pipeline logger. When logfp is given, entries are
// teed to the file and stdout.
func NewLogger(logfp string) *zap.Logger {
	if logfp == "" {
		l, _ := zap.NewProduction()
		return l
	}
	f, err := os.OpenFile(logfp, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l, _ := zap.NewProduction()
		return l
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.InfoLevel),
		zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
	)
	return zap.New(core)
}
