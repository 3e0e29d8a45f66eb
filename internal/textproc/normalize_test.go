package textproc

import "testing"

func TestNormalizeMixedSpacing(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"测试API接口", "测试 API 接口"},
		{"用Go写服务", "用 Go 写服务"},
		{"version2发布了", "version2 发布了"},
		{"no cjk here", "no cjk here"},
		{"已有 空格 的Mixed文本", "已有 空格 的 Mixed 文本"},
	}
	for _, tc := range cases {
		if got := NormalizeMixedSpacing(tc.in); got != tc.want {
			t.Errorf("NormalizeMixedSpacing(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLooksLikeQuestion(t *testing.T) {
	questions := []string{
		"你好吗",
		"这样可以么",
		"是不是这样",
		"有没有问题",
		"为什么会这样",
		"什么时候出发",
		"what time is it",
		"Could you repeat that",
		"how does this work?",
	}
	for _, q := range questions {
		if !LooksLikeQuestion(q) {
			t.Errorf("Expected %q to look like a question", q)
		}
	}

	statements := []string{
		"",
		"今天天气不错",
		"I like this approach",
		"明天见",
	}
	for _, s := range statements {
		if LooksLikeQuestion(s) {
			t.Errorf("Expected %q to not look like a question", s)
		}
	}
}

func TestApplyTonePunctuation(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"今天天气不错", "今天天气不错。"},
		{"hello world", "hello world."},
		{"你好吗", "你好吗？"},
		{"what time is it", "what time is it?"},
		// Chinese ending in an ASCII period is repaired to a full-width one.
		{"今天天气不错.", "今天天气不错。"},
		// Other existing terminal punctuation is preserved verbatim.
		{"Great!", "Great!"},
		{"真棒！", "真棒！"},
		// Question detection overrides existing punctuation.
		{"你好吗。", "你好吗？"},
	}
	for _, tc := range cases {
		if got := ApplyTonePunctuation(tc.in); got != tc.want {
			t.Errorf("ApplyTonePunctuation(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestApplyTonePunctuation_ConnectorComma(t *testing.T) {
	in := "今天天气很好所以我们决定出去走走"
	want := "今天天气很好，所以我们决定出去走走。"
	if got := ApplyTonePunctuation(in); got != want {
		t.Errorf("ApplyTonePunctuation(%q) = %q, want %q", in, got, want)
	}

	// Short text: no comma inserted.
	if got := ApplyTonePunctuation("好的所以走吧"); got != "好的所以走吧。" {
		t.Errorf("Expected no comma in short text, got %q", got)
	}

	// Existing comma: untouched.
	in = "今天天气很好，所以我们决定出去走走"
	want = "今天天气很好，所以我们决定出去走走。"
	if got := ApplyTonePunctuation(in); got != want {
		t.Errorf("ApplyTonePunctuation(%q) = %q, want %q", in, got, want)
	}
}

func TestNormalization_Idempotent(t *testing.T) {
	inputs := []string{
		"今天天气不错",
		"你好吗",
		"hello world",
		"测试API接口",
		"今天天气很好所以我们决定出去走走",
		"what time is it",
		"Great!",
	}
	for _, in := range inputs {
		once := ApplyTonePunctuation(NormalizeMixedSpacing(in))
		twice := ApplyTonePunctuation(NormalizeMixedSpacing(once))
		if once != twice {
			t.Errorf("Normalization not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
