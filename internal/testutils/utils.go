package testutils

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

func WithTimeout(timeout time.Duration, f func()) {
	t := time.After(timeout)
	done := make(chan struct{})
	go func() {
		select {
		case <-t:
			panic("timeout expired")
		case <-done:
		}
	}()
	f()
	done <- struct{}{}
}

func WaitUntil(timeout time.Duration, f func() bool) {
	t := time.After(timeout)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		for {
			select {
			case <-t:
				panic("timeout expired")
			default:
				if f() {
					wg.Done()
					return
				}
				time.Sleep(time.Millisecond)
			}
		}
	}()
	wg.Wait()
}

func UseTempFile(data string, f func(path string)) {
	file, err := os.CreateTemp("", "*.yml")
	if err != nil {
		panic(fmt.Errorf("couldn't create temp file: %s", err))
	}
	_, err = file.WriteString(data)
	if err != nil {
		panic(fmt.Errorf("couldn't write to temp file: %s", err))
	}
	_ = file.Close()
	filePath := file.Name()
	defer func() {
		err := os.Remove(filePath)
		if err != nil {
			log.Printf("couldn't delete temp file %s: %s", filePath, err)
		}
	}()
	f(filePath)
}

func WriteIntoFile(path string, data string) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err = f.WriteString(data); err != nil {
		panic(err)
	}
	if err = f.Sync(); err != nil {
		panic(err)
	}
}

func ReadFile(path string) string {
	d, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return string(d)
}
