package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/fasthttp/websocket"
)

// A scripted walk through every stage of a consultation, printing each
// reply. Run against a local server:
//
//	go run ./cmd/simulation -addr localhost:3000
type step struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Speaker string `json:"speaker,omitempty"`
	Command string `json:"command,omitempty"`
	Stage   string `json:"stage,omitempty"`
}

var script = []step{
	{Type: "speech", Speaker: "sales", Text: "您好，欢迎来到我们中心，请问怎么称呼？"},
	{Type: "speech", Text: "我叫张娜，今年32岁，预产期是下个月，这是二胎，打算剖腹产。"},
	{Type: "speech", Text: "我最担心伤口恢复和晚上睡不好。"},
	{Type: "stage_change", Stage: "tour"},
	{Type: "speech", Speaker: "sales", Text: "这是我们的母婴同室套房，配有24小时护士站。"},
	{Type: "speech", Text: "房间挺安静的，月子餐是怎么安排的？"},
	{Type: "stage_change", Stage: "consultation"},
	{Type: "speech", Text: "剖腹产以后多久可以下床活动？"},
	{Type: "command", Command: "小美，帮我介绍一下针对剖腹产的护理方案"},
	{Type: "stage_change", Stage: "case_presentation"},
	{Type: "speech", Speaker: "sales", Text: "给您看看和您情况相似的妈妈"},
}

func main() {
	addr := flag.String("addr", "localhost:3000", "server host:port")
	session := flag.String("session", fmt.Sprintf("sim-%d", time.Now().Unix()), "session id")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/api/ws", RawQuery: "session_id=" + url.QueryEscape(*session)}
	fmt.Printf("=== Consultation Simulation ===\nConnecting to %s\n", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	for i, s := range script {
		frame, _ := json.Marshal(s)
		fmt.Printf("\n[%d] >> %s\n", i+1, frame)
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Fatalf("Write failed: %v", err)
		}

		conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
		_, reply, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("Read failed: %v", err)
		}
		var pretty map[string]interface{}
		if json.Unmarshal(reply, &pretty) == nil {
			out, _ := json.MarshalIndent(pretty, "    ", "  ")
			fmt.Printf("    << %s\n", out)
		} else {
			fmt.Printf("    << %s\n", reply)
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	fmt.Println("\nSimulation finished. Fetch the stored profile with:")
	fmt.Printf("  curl http://%s/api/sessions/%s/profile\n", *addr, *session)
}
