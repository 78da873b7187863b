package journal

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileMode 擁有者讀寫，其他人唯讀
const FileMode fs.FileMode = 0644

// Journal 以 JSON lines 追加寫入的稽核紀錄檔
//
// 每次 Append 都會 fsync。Journal 不是帳本的資料來源，只用於稽核與重播。
type Journal struct {
	file *os.File
	mu   sync.Mutex
}

// Open 開啟或建立 journal 檔案，必要時建立上層目錄
//
// O_APPEND 每次寫入都跳到檔案末尾，O_RDWR 讓 ReadAll 可以從頭讀取
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, err
	}
	return &Journal{file: file}, nil
}

// Append 寫入一筆資料並刷入硬碟
func (j *Journal) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(line); err != nil {
		return err
	}
	return j.file.Sync()
}

// ReadAll 從頭依序讀出每一筆資料
//
// callback 每次收到一筆原始 JSON，回傳錯誤時停止讀取
func (j *Journal) ReadAll(callback func(raw json.RawMessage) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(j.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
}

// Close 關閉檔案
func (j *Journal) Close() error {
	return j.file.Close()
}
