package ml

import (
	"errors"
	"fmt"

	"demand-dashboard/internal/common"
)

// ErrUnknownModel is returned for a model name outside the registry.
var ErrUnknownModel = errors.New("unknown model")

// ModelID identifies one of the pre-trained models offered in the dashboard.
type ModelID int

const (
	ModelSVM ModelID = iota
	ModelRandomForest
	ModelLogisticRegression
)

var modelNames = map[ModelID]string{
	ModelSVM:                "SVM",
	ModelRandomForest:       "Random Forest",
	ModelLogisticRegression: "Logistic Regression",
}

// "Logistic Regression" is the display label; the artifact behind it is a linear regressor.
var modelFiles = map[ModelID]string{
	ModelSVM:                common.SVRFile,
	ModelRandomForest:       common.RandomForestFile,
	ModelLogisticRegression: common.LinearRegressionFile,
}

// Models returns every model in dropdown order.
func Models() []ModelID {
	return []ModelID{ModelSVM, ModelRandomForest, ModelLogisticRegression}
}

// ModelNames returns the display names in dropdown order.
func ModelNames() []string {
	ids := Models()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return names
}

func (m ModelID) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ModelID(%d)", int(m))
}

// ArtifactFile is the artifact file name relative to the artifacts directory.
func (m ModelID) ArtifactFile() string {
	return modelFiles[m]
}

// ParseModel resolves a display name. Names are matched exactly.
func ParseModel(name string) (ModelID, error) {
	for id, n := range modelNames {
		if n == name {
			return id, nil
		}
	}
	if name == "" {
		return 0, fmt.Errorf("%w: no model selected", ErrUnknownModel)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}
