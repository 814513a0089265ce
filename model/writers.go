package model

import (
	"fmt"
	"math"

	"github.com/maseology/mmio"

	"github.com/VANatHeritage/ConsVision-DevVulnModel/forest"
	"github.com/VANatHeritage/ConsVision-DevVulnModel/sample"
)

func fna(v float64) interface{} {
	if math.IsNaN(v) {
		return "NA"
	}
	return v
}

// WriteFoldStats writes the per-fold rows followed by the pooled row.
func WriteFoldStats(fp string, folds []FoldResult, pooled *Stats) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("fold,nsamp,class0,class1,ooberr,aucroc,aucpr,threshold,accuracy,sensitivity,specificity,kappa"); err != nil {
		return fmt.Errorf("WriteFoldStats %s: %w", fp, err)
	}
	for _, f := range folds {
		if f.Err != nil {
			csvw.WriteLine(f.Fold, f.N, f.N0, f.N1, "NA", "NA", "NA", "NA", "NA", "NA", "NA", "NA")
			continue
		}
		s := f.Stats
		csvw.WriteLine(f.Fold, f.N, f.N0, f.N1, f.OOBErr,
			fna(s.AUCROC), fna(s.AUCPR), fna(s.Threshold), fna(s.Accuracy), fna(s.Sensitivity), fna(s.Specificity), fna(s.Kappa))
	}
	if pooled != nil {
		csvw.WriteLine("pooled", pooled.N, pooled.N0, pooled.N1, "NA",
			fna(pooled.AUCROC), fna(pooled.AUCPR), fna(pooled.Threshold), fna(pooled.Accuracy), fna(pooled.Sensitivity), fna(pooled.Specificity), fna(pooled.Kappa))
	}
	return nil
}

// WriteCurves writes the PR and ROC vertices of an evaluation unit.
func WriteCurves(prfp, rocfp string, s *Stats) error {
	if s == nil || !s.Valid {
		return fmt.Errorf("WriteCurves: no curve data")
	}
	csvw := mmio.NewCSVwriter(prfp)
	if err := csvw.WriteHead("threshold,precision,recall"); err != nil {
		return fmt.Errorf("WriteCurves %s: %w", prfp, err)
	}
	for _, pt := range s.PR {
		csvw.WriteLine(pt.Threshold, pt.Precision, pt.Recall)
	}
	csvw.Close()
	csvw = mmio.NewCSVwriter(rocfp)
	defer csvw.Close()
	if err := csvw.WriteHead("threshold,fpr,tpr"); err != nil {
		return fmt.Errorf("WriteCurves %s: %w", rocfp, err)
	}
	for _, pt := range s.ROC {
		csvw.WriteLine(pt.Threshold, pt.FPR, pt.TPR)
	}
	return nil
}

// WriteSelection writes the per-candidate selection table.
func WriteSelection(fp string, rows []SelRow) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("varname,group,cluster,importance,kept"); err != nil {
		return fmt.Errorf("WriteSelection %s: %w", fp, err)
	}
	for _, r := range rows {
		k := 0
		if r.Kept {
			k = 1
		}
		csvw.WriteLine(r.Name, r.Group, r.Cluster, r.Importance, k)
	}
	return nil
}

// WriteImportance writes a fitted model's permutation importances.
func WriteImportance(fp string, clf *forest.Classifier) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("varname,importance"); err != nil {
		return fmt.Errorf("WriteImportance %s: %w", fp, err)
	}
	for i, nm := range clf.Names {
		csvw.WriteLine(nm, clf.Importance[i])
	}
	return nil
}

// WriteOOB writes the per-sample out-of-bag predictions of a fitted
// ensemble, aligned to the training table.
func WriteOOB(fp string, t *sample.Table, clf *forest.Classifier) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("sampid,gridid,label,oobpred"); err != nil {
		return fmt.Errorf("WriteOOB %s: %w", fp, err)
	}
	for i := range t.Y {
		csvw.WriteLine(t.ID[i], t.Grid[i], t.Y[i], fna(clf.OOBPred[i]))
	}
	return nil
}

// WritePartialDep writes partial dependence curves, one row per grid
// vertex.
func WritePartialDep(fp string, pds []PartialDep) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("varname,value,mean"); err != nil {
		return fmt.Errorf("WritePartialDep %s: %w", fp, err)
	}
	for _, pd := range pds {
		for i := range pd.Value {
			csvw.WriteLine(pd.Name, pd.Value[i], pd.Mean[i])
		}
	}
	return nil
}
