package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"Lulan/Models"
	"Lulan/Store"
	"Lulan/middleware"
)

// LogController reads back the JSON request log for administrators
type LogController struct {
	Path  string
	Store *Store.Store
	now   func() time.Time
}

func NewLogController(path string, store *Store.Store) *LogController {
	return &LogController{Path: path, Store: store, now: time.Now}
}

// LogGroup aggregates the requests sharing a method and path
type LogGroup struct {
	Path        string               `json:"path"`
	Method      string               `json:"method"`
	Count       int                  `json:"count"`
	AvgLatency  float64              `json:"avg_latency_ms"`
	MinLatency  float64              `json:"min_latency_ms"`
	MaxLatency  float64              `json:"max_latency_ms"`
	SuccessRate float64              `json:"success_rate"`
	Logs        []middleware.LogData `json:"logs"`
}

type logQuery struct {
	from, to time.Time
	path     string
	method   string
	status   int
	page     int
	pageSize int
}

func (l *LogController) parseQuery(c *fiber.Ctx) (logQuery, error) {
	q := logQuery{
		path:   c.Query("path"),
		method: strings.ToUpper(c.Query("method")),
	}
	q.page, _ = strconv.Atoi(c.Query("page", "1"))
	q.pageSize, _ = strconv.Atoi(c.Query("page_size", "50"))
	if q.page < 1 {
		q.page = 1
	}
	if q.pageSize < 1 || q.pageSize > 1000 {
		q.pageSize = 50
	}
	if status := c.Query("status"); status != "" {
		q.status, _ = strconv.Atoi(status)
	}

	now := l.now()
	from, to := c.Query("date_from"), c.Query("date_to")
	if from == "" && to == "" {
		q.from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		q.to = q.from.Add(24*time.Hour - time.Nanosecond)
		return q, nil
	}

	q.from = time.Unix(0, 0).UTC()
	if from != "" {
		parsed, err := time.ParseInLocation("2006-01-02", from, now.Location())
		if err != nil {
			return q, errors.New("Invalid date_from format. Use YYYY-MM-DD")
		}
		q.from = parsed
	}
	q.to = now
	if to != "" {
		parsed, err := time.ParseInLocation("2006-01-02", to, now.Location())
		if err != nil {
			return q, errors.New("Invalid date_to format. Use YYYY-MM-DD")
		}
		q.to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return q, nil
}

// load reports ok=false once it has written an error response.
func (l *LogController) load(c *fiber.Ctx) (entries []middleware.LogData, q logQuery, ok bool, err error) {
	if !l.Store.IsAdmin() {
		return nil, q, false, Fail(c, Models.ErrForbidden)
	}
	if q, err = l.parseQuery(c); err != nil {
		return nil, q, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if entries, err = readLogs(l.Path, q); err != nil {
		log.Printf("Error reading logs: %v", err)
		return nil, q, false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}
	return entries, q, true, nil
}

// GetLogs returns the matching requests grouped by method and path
func (l *LogController) GetLogs(c *fiber.Ctx) error {
	entries, q, ok, err := l.load(c)
	if !ok {
		return err
	}
	groups := groupLogs(entries)
	start, end := pageBounds(len(groups), q.page, q.pageSize)

	return c.JSON(fiber.Map{
		"groups":       groups[start:end],
		"total_logs":   len(entries),
		"total_groups": len(groups),
		"page":         q.page,
		"page_size":    q.pageSize,
		"total_pages":  (len(groups) + q.pageSize - 1) / q.pageSize,
		"date_from":    q.from,
		"date_to":      q.to,
	})
}

// GetLogStats summarises latency and status codes over the window
func (l *LogController) GetLogStats(c *fiber.Ctx) error {
	entries, q, ok, err := l.load(c)
	if !ok {
		return err
	}

	var successful, failed int
	var total, minLatency, maxLatency time.Duration
	methods := make(map[string]int)
	statuses := make(map[int]int)
	paths := make(map[string]int)
	for i, entry := range entries {
		switch {
		case entry.Status >= 200 && entry.Status < 300:
			successful++
		case entry.Status >= 400:
			failed++
		}
		total += entry.Latency
		if i == 0 || entry.Latency < minLatency {
			minLatency = entry.Latency
		}
		if entry.Latency > maxLatency {
			maxLatency = entry.Latency
		}
		methods[entry.Method]++
		statuses[entry.Status]++
		paths[entry.Path]++
	}

	var avg time.Duration
	successRate := 0.0
	if len(entries) > 0 {
		avg = total / time.Duration(len(entries))
		successRate = float64(successful) / float64(len(entries)) * 100
	}

	type pathCount struct {
		Path  string `json:"path"`
		Count int    `json:"count"`
	}
	top := make([]pathCount, 0, len(paths))
	for path, count := range paths {
		top = append(top, pathCount{Path: path, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Path < top[j].Path
	})
	if len(top) > 10 {
		top = top[:10]
	}

	return c.JSON(fiber.Map{
		"total_requests":      len(entries),
		"successful_requests": successful,
		"error_requests":      failed,
		"success_rate":        successRate,
		"avg_latency_ms":      millis(avg),
		"min_latency_ms":      millis(minLatency),
		"max_latency_ms":      millis(maxLatency),
		"method_stats":        methods,
		"status_stats":        statuses,
		"top_paths":           top,
		"date_from":           q.from,
		"date_to":             q.to,
	})
}

// readLogs returns the entries inside the query window that match its
// filters. Lines that are not JSON are skipped.
func readLogs(path string, q logQuery) ([]middleware.LogData, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return []middleware.LogData{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entries := []middleware.LogData{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Timestamp.Before(q.from) || entry.Timestamp.After(q.to) {
			continue
		}
		if q.path != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(q.path)) {
			continue
		}
		if q.method != "" && entry.Method != q.method {
			continue
		}
		if q.status != 0 && entry.Status != q.status {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

func groupLogs(entries []middleware.LogData) []LogGroup {
	index := make(map[string]int)
	var groups []LogGroup
	for _, entry := range entries {
		key := fmt.Sprintf("%s %s", entry.Method, entry.Path)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, LogGroup{Path: entry.Path, Method: entry.Method})
		}
		group := &groups[i]
		latency := millis(entry.Latency)
		group.Count++
		group.Logs = append(group.Logs, entry)
		group.AvgLatency += (latency - group.AvgLatency) / float64(group.Count)
		if group.Count == 1 || latency < group.MinLatency {
			group.MinLatency = latency
		}
		if latency > group.MaxLatency {
			group.MaxLatency = latency
		}
		success := 0.0
		if entry.Status >= 200 && entry.Status < 300 {
			success = 1
		}
		group.SuccessRate += (success - group.SuccessRate) / float64(group.Count)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	if groups == nil {
		groups = []LogGroup{}
	}
	return groups
}

func pageBounds(total, page, pageSize int) (int, int) {
	if page < 1 || pageSize < 1 || page-1 >= (total+pageSize-1)/pageSize {
		return total, total
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
