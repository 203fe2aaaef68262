package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/havenlabs/haven/backend/internal/analysis/sentiment"
	"github.com/havenlabs/haven/backend/internal/config"
	speechmodel "github.com/havenlabs/haven/backend/internal/model/speech"
	"github.com/havenlabs/haven/backend/internal/service/ai"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	"github.com/havenlabs/haven/backend/internal/service/speech"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	mode := flag.String("mode", "", "测试模式: score、chat 或 asr")
	text := flag.String("text", "", "score/chat 模式的输入文本")
	audioPath := flag.String("audio", "", "asr 模式的输入音频文件路径")
	format := flag.String("format", "", "音频格式，留空则按扩展名推断")
	language := flag.String("lang", "", "语言代码，默认使用配置中的语言")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "score":
		runScore(*text)
	case "chat":
		runChat(ctx, cfg, *text)
	case "asr":
		runASR(ctx, cfg, *audioPath, *format, *language)
	default:
		flag.Usage()
		log.Fatal("请通过 -mode=score、-mode=chat 或 -mode=asr 指定测试模式")
	}
}

// runScore 离线跑一遍词典打分，方便调试情绪分类边界
func runScore(text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("score 模式需要通过 -text 提供输入文本")
	}

	classifier := sentiment.NewClassifier(nil)
	label, polarity, err := classifier.Classify(text)
	if err != nil {
		log.Fatalf("情绪分类失败: %v", err)
	}

	log.Printf("情绪分类结果: label=%s display=%q polarity=%.3f", label, label.Display(), polarity)
}

// runChat 用真实聊天后端跑一轮完整对话
func runChat(ctx context.Context, cfg *config.Config, text string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("chat 模式需要通过 -text 提供输入文本")
	}
	if !cfg.AI.Enabled() {
		log.Fatal("聊天后端未配置，请先设置 Ark 或 OpenAI 兼容端点的环境变量")
	}

	provider, err := ai.New(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("聊天后端初始化失败: %v", err)
	}

	store := session.NewService()
	svc := companion.NewService(store, sentiment.NewClassifier(nil), provider, cfg.AI)

	sess, err := store.Create(ctx)
	if err != nil {
		log.Fatalf("创建会话失败: %v", err)
	}

	log.Printf("开始对话测试: session=%s provider=%s", sess.ID, provider.Name())

	reply, err := svc.Respond(ctx, sess.ID, text)
	if err != nil {
		log.Fatalf("对话失败: %v", err)
	}

	log.Printf("情绪: %s", reply.MoodDisplay)
	log.Printf("回复: %s", reply.Content)
}

// runASR 对本地音频文件做一次转写
func runASR(ctx context.Context, cfg *config.Config, audioPath, format, language string) {
	if audioPath == "" {
		log.Fatal("asr 模式需要通过 -audio 指定音频文件路径")
	}
	if !cfg.Speech.Enabled {
		log.Fatal("语音服务未启用，请先在环境变量中配置 SPEECH_*")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		log.Fatalf("打开音频文件失败: %v", err)
	}
	defer file.Close()

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
		if format == "" {
			format = "wav"
		}
	}
	if language == "" {
		language = cfg.Speech.Language
	}

	sessionID := fmt.Sprintf("manual-%d", time.Now().UnixNano())
	req := &speechmodel.TranscriptionRequest{
		SessionID: sessionID,
		AudioData: file,
		Format:    format,
		Language:  language,
	}

	log.Printf("开始进行 ASR 测试: session=%s format=%s language=%s", sessionID, format, language)

	svc := speech.NewService(cfg.Speech)
	resp, err := svc.TranscribeAudio(ctx, req)
	if err != nil {
		log.Fatalf("ASR 调用失败: %v", err)
	}

	log.Printf("ASR 识别成功: text=%q language=%s", resp.Text, resp.Language)
}
