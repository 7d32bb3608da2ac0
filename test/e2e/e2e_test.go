//go:build integration

/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"context"
	"errors"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bmarinov/garage-bootstrap/internal/bootstrap"
	"github.com/bmarinov/garage-bootstrap/internal/config"
	"github.com/bmarinov/garage-bootstrap/internal/garage"
	"github.com/bmarinov/garage-bootstrap/internal/garage/integrationtests"
	"github.com/bmarinov/garage-bootstrap/internal/s3"
	"github.com/bmarinov/garage-bootstrap/internal/s3check"
	"github.com/bmarinov/garage-bootstrap/internal/tests"
	"github.com/bmarinov/garage-bootstrap/internal/tests/fixture"
)

// runBootstrap wires the pipeline the same way the binary does.
func runBootstrap(ctx context.Context, env map[string]string) (*config.Config, error) {
	cfg, err := config.Load(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		return nil, err
	}

	var opts []bootstrap.Option
	if cfg.S3APIEndpoint != "" {
		checker, err := s3check.New(ctx, s3check.ClientConfig{
			Endpoint:        cfg.S3APIEndpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, bootstrap.WithBucketChecker(checker))
	}

	client := garage.NewClient(cfg.AdminAPIEndpoint, cfg.AdminToken)
	return cfg, bootstrap.New(cfg, bootstrap.ClientsFrom(client), opts...).Run(ctx)
}

func garageEnvVars(env integrationtests.Environment, buckets string) map[string]string {
	return map[string]string{
		config.EnvAccessKeyID:      fixture.AccessKeyID(),
		config.EnvSecretAccessKey:  fixture.SecretAccessKey(),
		config.EnvBuckets:          buckets,
		config.EnvAdminToken:       env.APIToken,
		config.EnvMetricsToken:     env.MetricsToken,
		config.EnvAdminAPIEndpoint: env.AdminAPIAddr,
		config.EnvS3APIEndpoint:    env.S3APIAddr,
		config.EnvS3Region:         env.Region,
		config.EnvReadinessTimeout: "30s",
	}
}

var _ = Describe("Bootstrap", Ordered, func() {
	var (
		garageEnv integrationtests.Environment
		admin     *garage.AdminClient
		ctx       context.Context
	)

	BeforeAll(func() {
		ctx = testContext()

		By("starting an unconfigured Garage node")
		garageEnv = integrationtests.NewGarageEnv()
		admin = garage.NewClient(garageEnv.AdminAPIAddr, garageEnv.APIToken)
	})

	AfterAll(func() {
		garageEnv.Terminate(context.Background())
	})

	It("should bring a fresh node to the declared state", func() {
		env := garageEnvVars(garageEnv, "media:public,upload")

		cfg, err := runBootstrap(ctx, env)
		Expect(err).NotTo(HaveOccurred())

		By("assigning the local node in the layout")
		layout, err := admin.Layout(ctx)
		Expect(err).NotTo(HaveOccurred())
		nodeID, err := tests.NodeID(ctx, garageEnv.Exec)
		Expect(err).NotTo(HaveOccurred())
		Expect(layout.AssignedNodes()).To(HaveLen(1))
		Expect(layout.AssignedNodes()[0].NodeID).To(Equal(nodeID))

		By("importing exactly one key")
		keys, err := admin.AccessKeyClient.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(HaveLen(1))
		Expect(keys[0].ID).To(Equal(cfg.AccessKeyID))

		By("configuring website access per policy")
		media := bucketByAlias(ctx, admin, "media")
		Expect(media.Website).To(Equal(s3.Website{Enabled: true, IndexDocument: "index.html"}))
		Expect(media.Keys[cfg.AccessKeyID]).To(Equal(s3.FullAccess))

		upload := bucketByAlias(ctx, admin, "upload")
		Expect(upload.Website.Enabled).To(BeFalse())
		Expect(upload.Keys[cfg.AccessKeyID]).To(Equal(s3.FullAccess))
	})

	It("should replace keys created out of band on restart", func() {
		staleID, err := tests.CreateKey(ctx, garageEnv.Exec, "stale")
		Expect(err).NotTo(HaveOccurred())

		env := garageEnvVars(garageEnv, "media:public,upload,archive")
		cfg, err := runBootstrap(ctx, env)
		Expect(err).NotTo(HaveOccurred())

		keys, err := admin.AccessKeyClient.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(HaveLen(1))
		Expect(keys[0].ID).To(Equal(cfg.AccessKeyID))
		Expect(keys[0].ID).NotTo(Equal(staleID))

		By("granting the new key on existing and new buckets")
		for _, name := range []string{"media", "upload", "archive"} {
			Expect(bucketByAlias(ctx, admin, name).Keys).To(HaveKeyWithValue(cfg.AccessKeyID, s3.FullAccess), name)
		}
	})

	It("should switch website access when a policy changes", func() {
		env := garageEnvVars(garageEnv, "media:private,upload:public")

		_, err := runBootstrap(ctx, env)
		Expect(err).NotTo(HaveOccurred())

		Expect(bucketByAlias(ctx, admin, "media").Website.Enabled).To(BeFalse())
		Expect(bucketByAlias(ctx, admin, "upload").Website.Enabled).To(BeTrue())
	})

	It("should reject an invalid configuration without side effects", func() {
		before, err := admin.AccessKeyClient.List(ctx)
		Expect(err).NotTo(HaveOccurred())

		env := garageEnvVars(garageEnv, "media")
		env[config.EnvAccessKeyID] = "abc"
		_, err = runBootstrap(ctx, env)

		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		after, err := admin.AccessKeyClient.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})
})

var _ = Describe("Bootstrap with existing layout", Ordered, func() {
	var garageEnv integrationtests.Environment

	BeforeAll(func() {
		garageEnv = integrationtests.NewGarageEnv()
		Expect(tests.AssignLayout(testContext(), garageEnv.Exec, "operator-zone")).To(Succeed())
	})

	AfterAll(func() {
		garageEnv.Terminate(context.Background())
	})

	It("should keep the layout assigned by an operator", func() {
		ctx := testContext()

		_, err := runBootstrap(ctx, garageEnvVars(garageEnv, "media"))
		Expect(err).NotTo(HaveOccurred())

		layout, err := garage.NewClient(garageEnv.AdminAPIAddr, garageEnv.APIToken).Layout(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(layout.Version).To(Equal(int64(1)))
		Expect(layout.Roles).To(HaveLen(1))
		Expect(layout.Roles[0].Zone).To(Equal("operator-zone"))
	})
})

var _ = Describe("Bootstrap against an unreachable admin API", func() {
	It("should time out without reaching other phases", func() {
		srv := httptest.NewServer(nil)
		addr := srv.URL
		srv.Close()

		env := map[string]string{
			config.EnvAccessKeyID:      fixture.AccessKeyID(),
			config.EnvSecretAccessKey:  fixture.SecretAccessKey(),
			config.EnvBuckets:          "media",
			config.EnvAdminAPIEndpoint: addr,
			config.EnvReadinessTimeout: "1s",
			config.EnvStartupTimeout:   "30s",
		}

		start := time.Now()
		_, err := runBootstrap(testContext(), env)

		var startupErr *bootstrap.StartupError
		Expect(errors.As(err, &startupErr)).To(BeTrue())
		Expect(startupErr.Kind).To(Equal(bootstrap.ReadinessTimeout))
		Expect(time.Since(start)).To(BeNumerically("<", 20*time.Second))
	})
})

func bucketByAlias(ctx context.Context, admin *garage.AdminClient, alias string) s3.Bucket {
	GinkgoHelper()
	buckets, err := admin.BucketClient.List(ctx)
	Expect(err).NotTo(HaveOccurred())
	for _, b := range buckets {
		for _, a := range b.GlobalAliases {
			if a == alias {
				bucket, err := admin.BucketClient.Get(ctx, b.ID)
				Expect(err).NotTo(HaveOccurred())
				return bucket
			}
		}
	}
	Fail("bucket not found: " + alias)
	return s3.Bucket{}
}
