package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Progress renders a single-line spinner/progress bar on stdout.
type Progress struct {
	total     int
	current   int
	mu        sync.Mutex
	startTime time.Time
	message   string
	spinner   int
	done      bool
	doneChan  chan struct{}
}

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func NewProgress(total int) *Progress {
	p := &Progress{
		total:     total,
		startTime: time.Now(),
		doneChan:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Progress) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			if !p.done {
				p.render()
			}
			p.mu.Unlock()
		case <-p.doneChan:
			return
		}
	}
}

func (p *Progress) render() {
	p.spinner = (p.spinner + 1) % len(spinnerChars)
	elapsed := time.Since(p.startTime)

	fmt.Print("\r\033[K")

	width := 30
	filled := 0
	if p.total > 0 {
		filled = int(float64(p.current) / float64(p.total) * float64(width))
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	percent := 0
	if p.total > 0 {
		percent = int(float64(p.current) / float64(p.total) * 100)
	}

	rate := float64(0)
	if elapsed.Seconds() > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("%s %s [%s] %d/%d (%d%%) %.1f/s %s",
		cyan(spinnerChars[p.spinner]),
		yellow("harvesting"),
		bar,
		p.current,
		p.total,
		percent,
		rate,
		p.message,
	)
}

func (p *Progress) Update(current int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.message = message
}

func (p *Progress) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

// Stop halts rendering and clears the line.
func (p *Progress) Stop() {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()
	close(p.doneChan)
	fmt.Print("\r\033[K")
}

// PrintBanner prints the startup banner.
func PrintBanner() {
	banner := `
   _____ __  __  _    _                           _
  / ____|  \/  || |  | |                         | |
 | (___ | \  / || |__| | __ _ _ ____   _____  ___| |_
  \___ \| |\/| ||  __  |/ _` + "`" + ` | '__\ \ / / _ \/ __| __|
  ____) | |  | || |  | | (_| | |   \ V /  __/\__ \ |_
 |_____/|_|  |_||_|  |_|\__,_|_|    \_/ \___||___/\__|

`
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println(banner)

	info := color.New(color.FgWhite)
	info.Println("  Sourcemap Harvester - rebuild source trees from live sites")
	fmt.Println()
}

// PrintSection prints a section divider.
func PrintSection(title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Printf("━━━ %s ━━━\n", title)
}

func PrintSuccess(format string, a ...interface{}) {
	green := color.New(color.FgGreen)
	green.Printf("[+] "+format+"\n", a...)
}

func PrintInfo(format string, a ...interface{}) {
	cyan := color.New(color.FgCyan)
	cyan.Printf("[*] "+format+"\n", a...)
}

func PrintWarning(format string, a ...interface{}) {
	yellow := color.New(color.FgYellow)
	yellow.Printf("[!] "+format+"\n", a...)
}

func PrintError(format string, a ...interface{}) {
	red := color.New(color.FgRed)
	red.Printf("[-] "+format+"\n", a...)
}
