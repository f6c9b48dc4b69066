package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/embassy-aviation/mailbot/internal/core"
)

type echoClassifier struct{}

func (echoClassifier) Classify(email *core.Email) *core.ClassificationResult {
	return &core.ClassificationResult{
		Category:   core.CategoryGeneral,
		Priority:   core.PriorityNormal,
		Confidence: 0.5,
		Reasoning:  email.Subject,
	}
}

func makeEmails(n int) []*core.Email {
	emails := make([]*core.Email, n)
	for i := range emails {
		emails[i] = &core.Email{Subject: fmt.Sprintf("email-%d", i)}
	}
	return emails
}

func TestClassifyPreservesOrder(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			emails := makeEmails(25)
			outcomes := Classify(context.Background(), echoClassifier{}, emails, workers)

			if len(outcomes) != len(emails) {
				t.Fatalf("got %d outcomes, want %d", len(outcomes), len(emails))
			}
			for i, o := range outcomes {
				if o.Email != emails[i] {
					t.Fatalf("outcome %d holds wrong email", i)
				}
				if o.Result == nil {
					t.Fatalf("outcome %d has no result", i)
				}
				if o.Result.Reasoning != emails[i].Subject {
					t.Errorf("outcome %d paired with result for %q", i, o.Result.Reasoning)
				}
			}
		})
	}
}

func TestClassifyEmptyBatch(t *testing.T) {
	outcomes := Classify(context.Background(), echoClassifier{}, nil, 4)
	if len(outcomes) != 0 {
		t.Fatalf("got %d outcomes, want 0", len(outcomes))
	}
}

func TestClassifyCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emails := makeEmails(100)
	outcomes := Classify(ctx, echoClassifier{}, emails, 2)

	if len(outcomes) != len(emails) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(emails))
	}
	unreached := 0
	for _, o := range outcomes {
		if o.Result == nil {
			unreached++
		}
	}
	if unreached == 0 {
		t.Error("cancelled batch classified every email")
	}
}
