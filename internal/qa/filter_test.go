package qa

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/models"
)

func newTestFilter() *Filter {
	return NewFilter(&common.QAConfig{
		SoftPurityCount: 5,
		HardPurityRatio: 0.05,
		LengthRatioMin:  0.5,
		LengthRatioMax:  8.0,
	})
}

func cleanInput() *Input {
	return &Input{
		JobID:              "job_1",
		SourceTitle:        "深度学习方法研究",
		SourceAbstract:     "本文提出了一种新的深度学习方法，用于图像分类任务。实验结果表明该方法优于现有基线。",
		TranslatedTitle:    "Research on Deep Learning Methods",
		TranslatedAbstract: "This paper proposes a new deep learning method for image classification tasks. Experimental results show the method outperforms existing baselines.",
	}
}

func TestCheckPassOnCleanTranslation(t *testing.T) {
	result := newTestFilter().Check(cleanInput())
	if result.Status != models.QAStatusPass {
		t.Errorf("Status = %s, want %s (issues: %+v)", result.Status, models.QAStatusPass, result.Issues)
	}
	if result.RetryEligible {
		t.Error("clean translation should not be retry-eligible")
	}
}

func TestCheckIsDeterministic(t *testing.T) {
	filter := newTestFilter()
	in := cleanInput()
	in.TranslatedAbstract = "This paper studies 图神经 networks and their applications."

	first := filter.Check(in)
	for i := 0; i < 50; i++ {
		if got := filter.Check(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Check not deterministic: run %d differs\nfirst: %+v\ngot:   %+v", i, first, got)
		}
	}
}

func TestResidueAboveSoftThresholdNotRetryEligible(t *testing.T) {
	in := cleanInput()
	// 6 source-script characters, above the soft threshold of 5
	in.TranslatedAbstract = "This long abstract discusses 深度学习方法 in detail. " + strings.Repeat("More English filler text to keep the ratio low. ", 10)

	result := newTestFilter().Check(in)
	if result.Status != models.QAStatusFlagLanguagePurity {
		t.Fatalf("Status = %s, want %s", result.Status, models.QAStatusFlagLanguagePurity)
	}
	if result.ResidueCount != 6 {
		t.Errorf("ResidueCount = %d, want 6", result.ResidueCount)
	}
	if result.RetryEligible {
		t.Error("6 residual characters should not be retry-eligible")
	}
}

func TestResidueBelowSoftThresholdRetryEligible(t *testing.T) {
	in := cleanInput()
	// 3 source-script characters, within the retry-eligible band
	in.TranslatedAbstract = "This long abstract discusses 深度学 in detail. " + strings.Repeat("More English filler text to keep the ratio low. ", 10)

	result := newTestFilter().Check(in)
	if result.Status != models.QAStatusFlagLanguagePurity {
		t.Fatalf("Status = %s, want %s", result.Status, models.QAStatusFlagLanguagePurity)
	}
	if result.ResidueCount != 3 {
		t.Errorf("ResidueCount = %d, want 3", result.ResidueCount)
	}
	if !result.RetryEligible {
		t.Error("3 residual characters should be retry-eligible")
	}
}

func TestHardRatioFlagsEvenWithSmallCount(t *testing.T) {
	in := cleanInput()
	// 3 source-script characters but in a tiny field: ratio well above 5%
	in.TranslatedTitle = "On 深度学"
	in.TranslatedAbstract = cleanInput().TranslatedAbstract

	result := newTestFilter().Check(in)
	if result.Status != models.QAStatusFlagLanguagePurity {
		t.Fatalf("Status = %s, want %s", result.Status, models.QAStatusFlagLanguagePurity)
	}
	if len(result.Issues) == 0 || result.Issues[0].Detail != "source-script fraction above hard threshold" {
		t.Errorf("expected hard-threshold detail, got %+v", result.Issues)
	}
	if result.RetryEligible {
		t.Error("hard-ratio flag should not be retry-eligible even with a small count")
	}
}

func TestResidueSpansReported(t *testing.T) {
	in := cleanInput()
	in.TranslatedAbstract = "Results on 图像 datasets and 分类 tasks. " + strings.Repeat("Filler text here. ", 10)

	result := newTestFilter().Check(in)
	var issue *models.QAIssue
	for i := range result.Issues {
		if result.Issues[i].Status == models.QAStatusFlagLanguagePurity {
			issue = &result.Issues[i]
			break
		}
	}
	if issue == nil {
		t.Fatalf("expected a language purity issue, got %+v", result.Issues)
	}
	if len(issue.Spans) != 2 {
		t.Fatalf("expected 2 spans, got %+v", issue.Spans)
	}
	if issue.Spans[0].Text != "图像" || issue.Spans[1].Text != "分类" {
		t.Errorf("unexpected span text: %+v", issue.Spans)
	}
}

func TestLengthRatioOutsideBand(t *testing.T) {
	in := cleanInput()
	in.TranslatedAbstract = "Too short."

	result := newTestFilter().Check(in)
	if result.Status != models.QAStatusFlagLength {
		t.Errorf("Status = %s, want %s", result.Status, models.QAStatusFlagLength)
	}
	if result.RetryEligible {
		t.Error("length flag should not be retry-eligible")
	}
}

func TestMathPlaceholderParity(t *testing.T) {
	in := cleanInput()
	in.SourceAbstract = "设 [[MATH_0]] 为损失函数，[[MATH_1]] 为学习率。我们研究其收敛性质并给出理论分析。"
	in.TranslatedAbstract = "Let [[MATH_0]] be the loss function. We study its convergence properties and give a theoretical analysis."

	result := newTestFilter().Check(in)
	if result.Status != models.QAStatusFlagMath {
		t.Errorf("Status = %s, want %s", result.Status, models.QAStatusFlagMath)
	}
}

func TestCitationMarkerParity(t *testing.T) {
	in := cleanInput()
	in.SourceAbstract = "如 [CIT_1] 所示，该方法已被广泛研究。我们在此基础上提出了改进方案并进行了验证。"
	in.TranslatedAbstract = "As shown previously, this method has been widely studied. We propose an improvement on this basis and validate it."

	result := newTestFilter().Check(in)
	if result.Status != models.QAStatusFlagStructure {
		t.Errorf("Status = %s, want %s", result.Status, models.QAStatusFlagStructure)
	}
}

func TestSeverityPrecedence(t *testing.T) {
	// Input trips purity, math, and length at once; purity must win.
	in := cleanInput()
	in.SourceAbstract = "设 [[MATH_0]] 为目标函数。" + strings.Repeat("我们研究其性质。", 20)
	in.TranslatedAbstract = "Let 目标函数 be it."

	result := newTestFilter().Check(in)
	if result.Status != models.QAStatusFlagLanguagePurity {
		t.Errorf("Status = %s, want %s (purity outranks math and length)", result.Status, models.QAStatusFlagLanguagePurity)
	}
	if len(result.Issues) < 3 {
		t.Errorf("expected all issues recorded, got %+v", result.Issues)
	}
}

func TestEmptyFieldsSkipped(t *testing.T) {
	result := newTestFilter().Check(&Input{JobID: "job_2"})
	if result.Status != models.QAStatusPass {
		t.Errorf("Status = %s, want %s for empty input", result.Status, models.QAStatusPass)
	}
	if len(result.Issues) != 0 {
		t.Errorf("expected no issues for empty input, got %+v", result.Issues)
	}
}
