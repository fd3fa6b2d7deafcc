package classify

// Evaluation summarizes a selected model on its training and test sets.
type Evaluation struct {
	Model  string
	Params Params

	TrainError float64
	CVError    float64
	TestError  float64

	Train Report
	Test  Report
}

// Evaluate scores model on train and test. cvScore is the model's mean
// cross-validation accuracy.
func Evaluate(model Classifier, train, test *Dataset, cvScore float64) (Evaluation, error) {
	trainReport, err := ReportFor(model, train)
	if err != nil {
		return Evaluation{}, err
	}
	testReport, err := ReportFor(model, test)
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluation{
		Model:      model.Name(),
		Params:     model.Params(),
		TrainError: trainReport.Error,
		CVError:    1 - cvScore,
		TestError:  testReport.Error,
		Train:      trainReport,
		Test:       testReport,
	}, nil
}

// ReportFor predicts ds with model and builds its Report.
func ReportFor(model Classifier, ds *Dataset) (Report, error) {
	proba, err := model.PredictProba(ds.X)
	if err != nil {
		return Report{}, err
	}

	pred := make([]int, len(proba))
	var scores []float64
	if len(ds.Classes) == 2 {
		scores = make([]float64, len(proba))
	}
	for i, p := range proba {
		pred[i] = argmax(p)
		if scores != nil {
			scores[i] = p[1]
		}
	}

	return NewReport(ds.Y, pred, scores, len(ds.Classes)), nil
}
