package composer

import "time"

type autoSaver struct {
	interval time.Duration
	stop     chan struct{}
}

// SetAutoSaveInterval replaces the auto-save period. d <= 0 cancels the timer
// and switches to writing every change through.
func (s *Session) SetAutoSaveInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autoSaveInterval = d
	s.opts.AutoSaveInterval = d
	if s.mounted && !s.closed {
		s.startAutoSaveLocked()
	}
}

func (s *Session) startAutoSaveLocked() {
	s.stopAutoSaveLocked()
	if s.autoSaveInterval <= 0 {
		return
	}

	saver := &autoSaver{
		interval: s.autoSaveInterval,
		stop:     make(chan struct{}),
	}
	s.saver = saver
	go s.runAutoSave(saver)
}

func (s *Session) stopAutoSaveLocked() {
	if s.saver != nil {
		close(s.saver.stop)
		s.saver = nil
	}
}

func (s *Session) runAutoSave(saver *autoSaver) {
	ticker := time.NewTicker(saver.interval)
	defer ticker.Stop()

	for {
		select {
		case <-saver.stop:
			return
		case <-ticker.C:
			s.tick(saver)
		}
	}
}

// tick saves unless the saver was replaced or stopped while the tick waited
// for the lock.
func (s *Session) tick(saver *autoSaver) {
	fx := &effects{}
	s.mu.Lock()
	if s.saver != saver {
		s.mu.Unlock()
		return
	}
	s.saveLocked(fx, "auto")
	s.mu.Unlock()

	s.run(fx)
}
