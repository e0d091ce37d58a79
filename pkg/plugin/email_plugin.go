package plugin

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
)

// implicitTLSPort 该端口连接建立即为 TLS，其余端口尝试 STARTTLS
const implicitTLSPort = 465

// EmailPlugin 通过 SMTP 发送运行通知（对外导出）
type EmailPlugin struct {
	name     string
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	ready    bool
}

// NewEmailPlugin 创建邮件插件，需 Init 后才能发送
func NewEmailPlugin() Plugin {
	return &EmailPlugin{name: "email", port: 25}
}

// Name 插件名称（实现Plugin接口）
func (e *EmailPlugin) Name() string {
	return e.name
}

// Init 初始化插件（实现Plugin接口）
// 参数: smtp_host、smtp_port（默认25）、username、password、from、to（逗号分隔）
func (e *EmailPlugin) Init(params map[string]string) error {
	if e.host = params["smtp_host"]; e.host == "" {
		return errors.New("smtp_host参数不能为空")
	}
	if v := params["smtp_port"]; v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("smtp_port参数格式错误: %q", v)
		}
		e.port = port
	}
	if e.from = params["from"]; e.from == "" {
		return errors.New("from参数不能为空")
	}
	if e.to = splitList(params["to"]); len(e.to) == 0 {
		return errors.New("to参数不能为空")
	}
	e.username, e.password = params["username"], params["password"]

	e.ready = true
	log.Printf("✅ [EmailPlugin] 初始化完成: %s -> %v", e.addr(), e.to)
	return nil
}

// Execute 发送一封通知邮件（实现Plugin接口）
func (e *EmailPlugin) Execute(ctx context.Context, data PluginData) error {
	if !e.ready {
		return errors.New("邮件插件未初始化")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := e.buildSubject(data)
	if err := e.send(ctx, e.buildMessage(subject, e.buildBody(data))); err != nil {
		log.Printf("❌ [EmailPlugin] 发送失败 %s: %v", e.addr(), err)
		return err
	}
	log.Printf("✅ [EmailPlugin] 已发送: %s", subject)
	return nil
}

func (e *EmailPlugin) addr() string {
	return net.JoinHostPort(e.host, strconv.Itoa(e.port))
}

// buildSubject 构建邮件主题
func (e *EmailPlugin) buildSubject(data PluginData) string {
	switch data.Event {
	case EventRunCompleted:
		return fmt.Sprintf("[构建成功] %s - %s", data.Name, data.RunID)
	case EventRunFailed:
		return fmt.Sprintf("[构建失败] %s - %s", data.Name, data.RunID)
	case EventStageFailed:
		return fmt.Sprintf("[阶段失败] %s - %s", data.Stage, data.RunID)
	default:
		return fmt.Sprintf("[系统通知] %s", data.Event)
	}
}

// buildBody 构建邮件正文
func (e *EmailPlugin) buildBody(data PluginData) string {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("事件类型: %s\n", data.Event))
	body.WriteString(fmt.Sprintf("状态: %s\n", data.Status))

	if data.Name != "" {
		body.WriteString(fmt.Sprintf("流水线: %s\n", data.Name))
	}
	if data.RunID != "" {
		body.WriteString(fmt.Sprintf("Run ID: %s\n", data.RunID))
	}
	if data.Stage != "" {
		body.WriteString(fmt.Sprintf("阶段: %s\n", data.Stage))
	}
	if data.Elapsed > 0 {
		body.WriteString(fmt.Sprintf("耗时: %s\n", data.Elapsed))
	}
	if data.Error != nil {
		body.WriteString(fmt.Sprintf("错误信息:\n%s\n", data.Error.Error()))
	}
	if len(data.Data) > 0 {
		body.WriteString("\n详细信息:\n")
		keys := make([]string, 0, len(data.Data))
		for k := range data.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			body.WriteString(fmt.Sprintf("  %s: %v\n", k, data.Data[k]))
		}
	}
	return body.String()
}

// dial 建立连接，ctx 的截止时间同时作用于后续整个 SMTP 会话
func (e *EmailPlugin) dial(ctx context.Context) (net.Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	if e.port == implicitTLSPort {
		d := &tls.Dialer{Config: &tls.Config{ServerName: e.host}}
		conn, err = d.DialContext(ctx, "tcp", e.addr())
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", e.addr())
	}
	if err != nil {
		return nil, fmt.Errorf("连接SMTP服务器失败: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, nil
}

func (e *EmailPlugin) send(ctx context.Context, message string) error {
	conn, err := e.dial(ctx)
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP握手失败: %w", err)
	}
	defer client.Close()

	if e.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
				return fmt.Errorf("STARTTLS失败: %w", err)
			}
		}
	}
	if e.username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", e.username, e.password, e.host)); err != nil {
				return fmt.Errorf("SMTP认证失败: %w", err)
			}
		}
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("MAIL FROM 被拒绝: %w", err)
	}
	for _, rcpt := range e.to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s 被拒绝: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA 被拒绝: %w", err)
	}
	if _, err := io.WriteString(w, message); err != nil {
		w.Close()
		return fmt.Errorf("写入邮件失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("邮件未被接受: %w", err)
	}
	return client.Quit()
}

// buildMessage 拼出带头部的 RFC 5322 文本
func (e *EmailPlugin) buildMessage(subject, body string) string {
	headers := [][2]string{
		{"From", e.from},
		{"To", strings.Join(e.to, ", ")},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}
	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}
