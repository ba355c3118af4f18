package structs

import (
	"testing"
)

func TestOperation_ParseOperationMetadata(t *testing.T) {

	raw := []byte(`{
		"startTime": "2023-11-14T22:13:20Z",
		"endTime": "2023-11-14T22:14:50Z",
		"expectedFulfillmentPeriod": "FULFILLMENT_PERIOD_NORMAL",
		"instance": {"nodeCount": 3}
	}`)

	meta, err := ParseOperationMetadata(raw)
	if err != nil {
		t.Fatalf("expected nil error got %v", err)
	}

	if meta.Fulfillment() != FulfillmentNormal {
		t.Fatalf("expected %q got %q", FulfillmentNormal, meta.Fulfillment())
	}
	if meta.TargetSize(UnitsNodes) != 3 {
		t.Fatalf("expected target 3 got %v", meta.TargetSize(UnitsNodes))
	}
	if meta.TargetSize(UnitsProcessingUnits) != 0 {
		t.Fatalf("expected no processing unit target got %v",
			meta.TargetSize(UnitsProcessingUnits))
	}
}

func TestOperation_ParseOperationMetadataEmpty(t *testing.T) {

	if _, err := ParseOperationMetadata(nil); err == nil {
		t.Fatalf("expected an error for missing metadata")
	}

	if _, err := ParseOperationMetadata([]byte("not json")); err == nil {
		t.Fatalf("expected an error for malformed metadata")
	}
}

func TestOperation_Fulfillment(t *testing.T) {
	type fulfillmentTest struct {
		input    string
		expected string
	}

	var fulfillmentTests = []fulfillmentTest{
		{FulfillmentNormal, FulfillmentNormal},
		{FulfillmentExtended, FulfillmentExtended},
		{"", FulfillmentUnspecified},
		{"FULFILLMENT_PERIOD_WARP", FulfillmentUnspecified},
	}

	for _, test := range fulfillmentTests {
		meta := &OperationMetadata{ExpectedFulfillmentPeriod: test.input}
		if actual := meta.Fulfillment(); actual != test.expected {
			t.Fatalf("expected %q got %q", test.expected, actual)
		}
	}
}

func TestOperation_TargetSizeUnits(t *testing.T) {

	meta := &OperationMetadata{}
	meta.Instance.ProcessingUnits = 500

	if actual := meta.TargetSize(UnitsProcessingUnits); actual != 500 {
		t.Fatalf("expected 500 got %v", actual)
	}
	if actual := meta.TargetSize(UnitsNodes); actual != 0 {
		t.Fatalf("expected 0 got %v", actual)
	}
}

func TestOperation_ErrorString(t *testing.T) {

	err := &OperationError{Code: 8, Message: "quota exceeded"}
	expected := "operation failed with code 8: quota exceeded"

	if err.Error() != expected {
		t.Fatalf("expected %q got %q", expected, err.Error())
	}
}
