package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/born-ml/convnet/internal/tensor"
)

// LoadCSV loads images from a CSV file with a header row.
//
// CSV Format (Kaggle-style):
//
//	label,pixel0,pixel1,...
//	5,0,0,12,...,0
//
// Each row holds a label followed by C*H*W pixel values in 0-255, which are
// scaled to [0, 1]. maxSamples limits the number of rows (0 = load all).
func LoadCSV(filename string, sampleShape tensor.Shape, classes, maxSamples int) (*Dataset, error) {
	//nolint:gosec // G304: the path is chosen by the user loading data
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, sampleShape, classes, maxSamples)
}

// ReadCSV reads the LoadCSV format from r.
func ReadCSV(r io.Reader, sampleShape tensor.Shape, classes, maxSamples int) (*Dataset, error) {
	if len(sampleShape) != 3 {
		return nil, fmt.Errorf("sample shape must be (C, H, W), got %v", sampleShape)
	}
	pixels := sampleShape.NumElements()

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing header")
	}

	// Skip header row
	records = records[1:]
	if maxSamples > 0 && len(records) > maxSamples {
		records = records[:maxSamples]
	}

	images := tensor.Zeros(tensor.Shape{len(records), sampleShape[0], sampleShape[1], sampleShape[2]})
	data := images.Data()
	labels := make([]int, len(records))
	for i, record := range records {
		if len(record) != pixels+1 {
			return nil, fmt.Errorf("invalid record length at row %d: got %d, want %d", i+1, len(record), pixels+1)
		}

		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid label at row %d: %w", i+1, err)
		}
		labels[i] = label

		for j := 0; j < pixels; j++ {
			pixel, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid pixel at row %d, column %d: %w", i+1, j+1, err)
			}
			data[i*pixels+j] = pixel / 255.0
		}
	}

	if classes == 0 {
		for _, c := range labels {
			classes = max(classes, c+1)
		}
	}
	return New(images, labels, classes)
}
