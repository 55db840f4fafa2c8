package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"autoinsight-api/pkg/models"
	"autoinsight-api/pkg/ollama"
)

// 固定のセクションラベル。モデルへの指示とパーサーの認識対象で共通。
const (
	labelOverview    = "OVERVIEW"
	labelDomain      = "DOMAIN"
	labelEnables     = "WHAT THIS DATA ENABLES"
	labelLimitations = "LIMITATIONS"
	labelActions     = "PROFIT IMPROVEMENT ACTIONS"
)

// 箇条書きの行頭マーカー
var bulletMarkers = []string{"-", "•", "*"}

var multiNewline = regexp.MustCompile(`\n{2,}`)

// AnalysisService はモデル呼び出しと応答テキストの構造化を担当します。
type AnalysisService struct {
	client *ollama.Client
}

// NewAnalysisService は新しいAnalysisServiceを作成します。
func NewAnalysisService(client *ollama.Client) *AnalysisService {
	return &AnalysisService{
		client: client,
	}
}

// Generate はプロンプトをモデルに送信します。失敗時はバックオフなしで
// 最大3回試行し、全て失敗した場合は空文字を返します。呼び出し側は
// 空文字を「内容なし」として扱い、エラーとは区別しません。
func (as *AnalysisService) Generate(ctx context.Context, prompt string) string {
	for attempt := 1; attempt <= 3; attempt++ {
		text, err := as.client.Generate(ctx, prompt)
		if err != nil {
			log.Printf("モデル呼び出しに失敗 (attempt %d/3): %v", attempt, err)
			continue
		}
		return text
	}
	return ""
}

// NormalizeText は2つ以上連続する改行を1つにまとめ、前後の空白を除去します。
// 冪等です: NormalizeText(NormalizeText(x)) == NormalizeText(x)。
func NormalizeText(text string) string {
	return strings.TrimSpace(multiNewline.ReplaceAllString(text, "\n"))
}

// ParseSections はモデルの自由テキスト応答を5つの固定セクションに分割します。
//
// 行単位の走査で「現在のセクション」を1つだけ保持する状態機械です:
//   - コロンで終わり、コロンの前が固定ラベルに完全一致する行はヘッダー。
//     現在のセクションを切り替え、行自体は出力に含めない。
//   - 箇条書きマーカーで始まる行は、リスト型セクションにのみ1エントリ
//     として追加される（自由テキスト型セクションでは破棄）。
//   - それ以外の行は、自由テキスト型セクションには空白区切りで連結し、
//     リスト型セクションでは無視する（地の文の混入防止）。
//   - 最初のヘッダーより前の行は捨てる。未知のコロン終端行は通常の
//     内容行として扱う。
//
// 不正な入力でもエラーにはならず、最悪でも空のセクションを返します。
func ParseSections(text string) models.NarrativeSections {
	sections := models.NarrativeSections{
		Enables:     []string{},
		Limitations: []string{},
		Actions:     []string{},
	}

	current := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if label, ok := matchSectionHeader(line); ok {
			current = label
			continue
		}
		if current == "" {
			continue
		}

		if bullet, ok := stripBullet(line); ok {
			switch current {
			case labelEnables:
				sections.Enables = append(sections.Enables, bullet)
			case labelLimitations:
				sections.Limitations = append(sections.Limitations, bullet)
			case labelActions:
				sections.Actions = append(sections.Actions, bullet)
			}
			// 自由テキスト型セクションは箇条書き行を受け取らない
			continue
		}

		switch current {
		case labelOverview:
			sections.Overview += " " + line
		case labelDomain:
			sections.Domain += " " + line
		}
		// リスト型セクションでは箇条書き以外の行を無視する
	}

	sections.Overview = strings.TrimSpace(sections.Overview)
	sections.Domain = strings.TrimSpace(sections.Domain)
	return sections
}

// matchSectionHeader は「ラベル:」形式のヘッダー行を判定します。
func matchSectionHeader(line string) (string, bool) {
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	name := strings.TrimSuffix(line, ":")
	switch name {
	case labelOverview, labelDomain, labelEnables, labelLimitations, labelActions:
		return name, true
	}
	return "", false
}

// stripBullet は行頭の箇条書きマーカーを除去します。
// マーカーで始まらない行は (_, false) を返します。
func stripBullet(line string) (string, bool) {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.Trim(line, "-•* ")), true
		}
	}
	return "", false
}

// GenerateUnderstanding はデータセットの構造説明プロンプトを送信し、
// 応答を正規化してセクションに分割します。
func (as *AnalysisService) GenerateUnderstanding(ctx context.Context, dataset *models.Dataset, sample string) models.NarrativeSections {
	prompt := fmt.Sprintf(`You are a senior business analyst.

Return content strictly in this structure:

OVERVIEW:
2-3 lines explaining what the dataset represents.

DOMAIN:
Industry / business domain.

WHAT THIS DATA ENABLES:
At least 4 bullet points.

LIMITATIONS:
At least 3 bullet points.

PROFIT IMPROVEMENT ACTIONS:
At least 10 bullet points.

Dataset columns:
%s

Sample data:
%s
`, strings.Join(dataset.Columns, ", "), sample)

	raw := NormalizeText(as.Generate(ctx, prompt))
	return ParseSections(raw)
}

// GenerateInsights は記述統計を添えて洞察リストの生成を依頼し、
// 応答を行単位に分解します。短すぎる行（20文字以下）は除外し、
// 行頭・行末の箇条書き文字を除去します。
func (as *AnalysisService) GenerateInsights(ctx context.Context, describe string) []string {
	prompt := fmt.Sprintf(`Write 8-10 strong business insights with recommendations.
Avoid generic points.

Statistics:
%s
`, describe)

	insights := []string{}
	for _, line := range strings.Split(as.Generate(ctx, prompt), "\n") {
		if len(strings.TrimSpace(line)) > 20 {
			insights = append(insights, strings.TrimSpace(strings.Trim(line, "-• ")))
		}
	}
	return insights
}
